package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tapcard-backend/internal/config"
	"tapcard-backend/internal/core"
	"tapcard-backend/internal/db/memory"
	"tapcard-backend/internal/models"
	"tapcard-backend/pkg/cache"
	"tapcard-backend/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tokenVerifier accepts "token-<uid>" and rejects everything else.
type tokenVerifier struct{}

func (tokenVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, ok := strings.CutPrefix(idToken, "token-")
	if !ok || uid == "" {
		return nil, errors.New("invalid token")
	}
	return &auth.Token{UID: uid, Claims: map[string]interface{}{
		"email": uid + "@example.com",
		"name":  uid,
	}}, nil
}

type resetLinker struct{}

func (resetLinker) PasswordResetLink(_ context.Context, email string) (string, error) {
	return "https://idp.example.com/reset?email=" + email, nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

type fakeImages struct{}

func (fakeImages) UploadImage(_ context.Context, ownerUID string, data []byte) (string, error) {
	if !bytes.HasPrefix(data, pngHeader) {
		return "", storage.ErrNotAnImage
	}
	return "https://cdn.example.com/users/" + ownerUID + "/image.png", nil
}

type harnessOptions struct {
	release bool
	images  core.ImageStore
}

type harness struct {
	router *gin.Engine
	store  *memory.Store
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	plans := config.DefaultPlanCatalog()
	events := core.NopEventPublisher()

	appConfig := &config.Config{GinMode: "debug", UploadMaxBytes: 1024}
	if opts.release {
		appConfig.GinMode = "release"
	}

	lc, err := cache.NewLRUCache(32)
	require.NoError(t, err)
	resolver := core.NewResolverService(store.Cards(), lc, time.Minute, logger)
	share := core.NewShareBuilder("https://cards.example.com", "https://api.qrserver.com/v1/create-qr-code/", 300)
	gate := core.NewEntitlementService(store.Cards(), plans, events, logger)

	svc := Services{
		Users:         core.NewUserService(store.Users(), store.Subscriptions(), plans, gate, resetLinker{}, nil, logger),
		Entitlement:   gate,
		Cards:         core.NewCardService(store.Cards(), store.Subscriptions(), plans, resolver, share, events, logger),
		Resolver:      resolver,
		Subscriptions: core.NewSubscriptionService(store.Subscriptions(), plans, events, logger),
		Wallet:        core.NewWalletService(store.ScannedCards(), resolver, events, logger),
		Images:        opts.images,
	}

	router := gin.New()
	SetupRoutes(router, appConfig, logger, tokenVerifier{}, svc)
	return &harness{router: router, store: store}
}

// do sends body as JSON unless it is already a string.
func (h *harness) do(t *testing.T, method, path, uid string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer token-"+uid)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (h *harness) createCard(t *testing.T, uid string, body interface{}) *models.Card {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/v1/cards", uid, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*models.Card](t, rec)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	rec := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "UP")
}

func TestProtectedRoutesRequireIdentity(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/cards"},
		{http.MethodGet, "/api/v1/cards/me"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/scanned"},
		{http.MethodGet, "/api/v1/subscription"},
	} {
		rec := h.do(t, r.method, r.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.path)
	}
}

func TestQuotaUpgradeScenario(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/users/initialize", "u", nil).Code)

	for i := 0; i < 5; i++ {
		h.createCard(t, "u", map[string]string{"fullName": fmt.Sprintf("Card %d", i)})
	}

	rec := h.do(t, http.MethodPost, "/api/v1/cards", "u", map[string]string{"fullName": "Sixth"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	errBody := decode[ErrorResponse](t, rec)
	assert.Contains(t, errBody.Error, "5")
	assert.Contains(t, errBody.Error, "free")
	assert.Equal(t, 5, h.store.CardCount())

	rec = h.do(t, http.MethodPost, "/api/v1/subscription/select", "u", map[string]string{"plan": "PREMIUM"})
	require.Equal(t, http.StatusOK, rec.Code)
	selected := decode[SelectPlanResponse](t, rec)
	assert.True(t, selected.RequiresPayment)
	assert.Equal(t, models.PlanFree, selected.Subscription.Plan)

	rec = h.do(t, http.MethodPost, "/api/v1/subscription/confirm-payment", "u", map[string]string{"plan": "PREMIUM"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PlanPremium, decode[SelectPlanResponse](t, rec).Subscription.Plan)

	h.createCard(t, "u", map[string]string{"fullName": "Sixth"})

	rec = h.do(t, http.MethodGet, "/api/v1/users/me", "u", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[MeResponse](t, rec)
	assert.Equal(t, 6, me.Subscription.CardsCreated)
	assert.Len(t, me.Cards, 6)
	assert.Equal(t, "u@example.com", me.User.Email)
}

func TestCreateCardRejectsBadPayloads(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	for name, body := range map[string]string{
		"empty body":    "",
		"not json":      "fullName=x",
		"unknown field": `{"fullName":"A","colour":"red"}`,
		"missing name":  `{"company":"Acme"}`,
		"bad email":     `{"fullName":"A","email":"nope"}`,
		"bad link":      `{"fullName":"A","cardLink":"a b"}`,
		"bad banner":    `{"fullName":"A","banner":{"type":"color","value":"red"}}`,
	} {
		rec := h.do(t, http.MethodPost, "/api/v1/cards", "u", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	assert.Zero(t, h.store.CardCount())
}

func TestCardOwnershipOverHTTP(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	card := h.createCard(t, "alice", map[string]string{"fullName": "Alice"})
	path := "/api/v1/cards/" + card.ID

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, path, "bob", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, path+"/share", "bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPut, path, "bob", map[string]string{"fullName": "Bob"}).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, path, "bob", nil).Code)

	rec := h.do(t, http.MethodGet, path, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decode[*models.Card](t, rec).FullName)
}

func TestUpdateShareDeleteCard(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	card := h.createCard(t, "alice", map[string]string{"fullName": "Alice", "cardLink": "alice"})
	path := "/api/v1/cards/" + card.ID

	rec := h.do(t, http.MethodPut, path, "alice", map[string]string{"designation": "CTO", "cardLink": "team/alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[UpdateCardResponse](t, rec)
	assert.Equal(t, "CTO", updated.Card.Designation)
	assert.Equal(t, "Alice", updated.Card.FullName)

	rec = h.do(t, http.MethodGet, path+"/share", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	share := decode[core.SharePayload](t, rec)
	assert.Equal(t, "https://cards.example.com/p/team/alice", share.URL)
	assert.Contains(t, share.QRImageURL, "size=300x300")

	rec = h.do(t, http.MethodDelete, path, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, path, "alice", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, path, "alice", nil).Code)
}

func TestLinkConflict(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.createCard(t, "alice", map[string]string{"fullName": "Alice", "cardLink": "jane"})

	rec := h.do(t, http.MethodPost, "/api/v1/cards", "bob", map[string]string{"fullName": "Bob", "cardLink": "jane"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	bobCard := h.createCard(t, "bob", map[string]string{"fullName": "Bob"})
	rec = h.do(t, http.MethodPut, "/api/v1/cards/"+bobCard.ID, "bob", map[string]string{"cardLink": "jane"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublicCard(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	card := h.createCard(t, "alice", map[string]string{"fullName": "Alice", "cardLink": "team/alice"})

	rec := h.do(t, http.MethodGet, "/api/v1/cards/public/team/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, card.ID, decode[PublicCardResponse](t, rec).Card.ID)

	rec = h.do(t, http.MethodGet, "/api/v1/cards/public/team/alice", "bob", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "any caller sees active public cards")

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/cards/public/nobody", "", nil).Code)

	rec = h.do(t, http.MethodPut, "/api/v1/cards/"+card.ID, "alice", `{"isActive":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/cards/public/team/alice", "", nil).Code)
}

func TestVCardDownload(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.createCard(t, "alice", map[string]string{
		"fullName": "Alice Doe",
		"phone":    "+1 (555) 123-4567",
		"cardLink": "team/alice",
	})

	rec := h.do(t, http.MethodGet, "/api/v1/vcard?cardLink=team/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/vcard; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="team-alice.vcf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "FN:Alice Doe\r\n")
	assert.Contains(t, rec.Body.String(), "TEL;TYPE=CELL:+15551234567\r\n")

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/v1/vcard", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/vcard?userId=ghost", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/vcard?cardLink=ghost", "", nil).Code)

	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/v1/users/initialize", "bob", nil).Code)
	rec = h.do(t, http.MethodPut, "/api/v1/users/me", "bob", map[string]string{"fullName": "Bob Roe", "slug": "bob-roe"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/v1/vcard?userId=bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="bob-roe.vcf"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "FN:Bob Roe\r\n")
	assert.Contains(t, rec.Body.String(), "EMAIL:bob@example.com\r\n")
}

func TestWalletOverHTTP(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.createCard(t, "alice", map[string]string{"fullName": "Alice", "cardLink": "team/alice"})

	rec := h.do(t, http.MethodPost, "/api/v1/scanned", "bob", map[string]string{"cardLink": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/scanned", "bob", map[string]string{"cardLink": "team/alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "team/alice", decode[SaveScannedCardResponse](t, rec).ScannedCard.CardLink)

	rec = h.do(t, http.MethodGet, "/api/v1/scanned/me", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	wallet := decode[WalletResponse](t, rec)
	require.Len(t, wallet.ScannedCards, 1)
	assert.Equal(t, "team/alice", wallet.ScannedCards[0].CardLink)

	rec = h.do(t, http.MethodGet, "/api/v1/scanned/me?cardLink=team/alice", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decode[WalletEntryResponse](t, rec).Card.FullName)

	rec = h.do(t, http.MethodGet, "/api/v1/scanned/me?cardLink=team/alice", "carol", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/scanned/me", "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"scannedCards":[]}`, rec.Body.String())
}

func TestUserLifecycle(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/users/me", "alice", nil).Code)

	rec := h.do(t, http.MethodPost, "/api/v1/users/initialize", "alice", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice@example.com", decode[*models.User](t, rec).Email)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/v1/users/initialize", "alice", nil).Code)

	rec = h.do(t, http.MethodPut, "/api/v1/users/me", "alice", `{"website":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodPut, "/api/v1/users/me", "alice", `{"nickname":"al"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/users/register", "bob", map[string]interface{}{
		"profile": map[string]string{"fullName": "Bob Roe"},
		"card":    map[string]string{"fullName": "Bob Roe", "cardLink": "bob"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decode[RegisterResponse](t, rec)
	assert.Equal(t, "Bob Roe", registered.User.FullName)
	assert.Equal(t, "bob", registered.Card.CardLink)
}

func TestForgotPassword(t *testing.T) {
	body := map[string]string{"email": "alice@example.com"}

	dev := newHarness(t, harnessOptions{})
	rec := dev.do(t, http.MethodPost, "/api/v1/users/forgot-password", "", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://idp.example.com/reset?email=alice@example.com", decode[ForgotPasswordResponse](t, rec).ResetLink)

	prod := newHarness(t, harnessOptions{release: true})
	rec = prod.do(t, http.MethodPost, "/api/v1/users/forgot-password", "", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[ForgotPasswordResponse](t, rec).ResetLink)

	rec = dev.do(t, http.MethodPost, "/api/v1/users/forgot-password", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	rec := h.do(t, http.MethodGet, "/api/v1/subscription", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PlanFree, decode[*models.Subscription](t, rec).Plan)

	rec = h.do(t, http.MethodGet, "/api/v1/subscription/plans", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	plans := decode[[]config.Plan](t, rec)
	require.Len(t, plans, 3)
	assert.Equal(t, models.PlanFree, plans[0].ID)

	rec = h.do(t, http.MethodPost, "/api/v1/subscription/select", "alice", map[string]string{"plan": "GOLD"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/subscription/confirm-payment", "alice", map[string]string{"plan": "PRO"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/v1/subscription/select", "alice", map[string]string{"plan": "FREE"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[SelectPlanResponse](t, rec).RequiresPayment)
}

func multipartUpload(t *testing.T, h *harness, uid string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-"+uid)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestUploads(t *testing.T) {
	h := newHarness(t, harnessOptions{images: fakeImages{}})

	rec := multipartUpload(t, h, "alice", append(append([]byte{}, pngHeader...), 1, 2, 3))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "https://cdn.example.com/users/alice/image.png", decode[UploadResponse](t, rec).URL)

	rec = multipartUpload(t, h, "alice", []byte("just text"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = multipartUpload(t, h, "alice", append(append([]byte{}, pngHeader...), make([]byte, 2048)...))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	disabled := newHarness(t, harnessOptions{})
	rec = multipartUpload(t, disabled, "alice", pngHeader)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
