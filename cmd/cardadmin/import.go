package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tapcard-backend/internal/core"
	"tapcard-backend/internal/models"
)

var (
	importPassword string
	importPlan     string
)

// importProfilesCmd creates accounts for a team and fills in their profiles
var importProfilesCmd = &cobra.Command{
	Use:   "import-profiles <file.json>",
	Short: "Bulk create accounts and profiles from a JSON file",
	Long: `Read a JSON array of team profiles and, for each entry:
  1. reuse the identity-provider account with that email, or create one
     with the --password given
  2. create the profile (and FREE subscription) if it does not exist yet
  3. overwrite the profile fields present in the file

Entries fail independently; the command reports a summary and exits
non-zero when any entry failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportProfiles,
}

// profileRecord is one entry of the import file. Keys follow the team
// spreadsheet export, hence "full name".
type profileRecord struct {
	FullName     string     `json:"full name"`
	Email        string     `json:"email"`
	Company      string     `json:"company"`
	Designation  string     `json:"designation"`
	Phone        flexString `json:"phone"`
	ProfileImage string     `json:"profileImage"`
	Website      string     `json:"website"`
	LinkedIn     string     `json:"linkedin"`
	Bio          string     `json:"bio"`
	Twitter      string     `json:"twitter"`
	Instagram    string     `json:"instagram"`
	Facebook     string     `json:"facebook"`
}

// flexString accepts a JSON string or number. Spreadsheet exports write
// phone numbers either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

func parseProfiles(r io.Reader) ([]profileRecord, error) {
	var records []profileRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding profiles: %w", err)
	}
	return records, nil
}

// profileUpdate maps a record onto a partial profile update. Blank fields are
// left out so they never clear existing data, and an image that is not an
// absolute URL (a local file in the export) is skipped.
func (p profileRecord) profileUpdate() models.UpdateProfileRequest {
	opt := func(s string) *string {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return &s
	}
	req := models.UpdateProfileRequest{
		DisplayName: opt(p.FullName),
		FullName:    opt(p.FullName),
		Designation: opt(p.Designation),
		Company:     opt(p.Company),
		Bio:         opt(p.Bio),
		Phone:       opt(string(p.Phone)),
		Website:     opt(p.Website),
		LinkedIn:    opt(p.LinkedIn),
		Twitter:     opt(p.Twitter),
		Instagram:   opt(p.Instagram),
		Facebook:    opt(p.Facebook),
	}
	if img := strings.TrimSpace(p.ProfileImage); strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		req.ProfileImage = &img
	}
	return req
}

// accountDirectory finds or creates identity-provider accounts.
type accountDirectory interface {
	EnsureAccount(ctx context.Context, email, displayName, password string) (uid string, created bool, err error)
}

type firebaseDirectory struct {
	client *auth.Client
}

func (d firebaseDirectory) EnsureAccount(ctx context.Context, email, displayName, password string) (string, bool, error) {
	rec, err := d.client.GetUserByEmail(ctx, email)
	if err == nil {
		return rec.UID, false, nil
	}
	if !auth.IsUserNotFound(err) {
		return "", false, fmt.Errorf("looking up %s: %w", email, err)
	}
	toCreate := (&auth.UserToCreate{}).Email(email).Password(password)
	if displayName != "" {
		toCreate = toCreate.DisplayName(displayName)
	}
	rec, err = d.client.CreateUser(ctx, toCreate)
	if err != nil {
		return "", false, fmt.Errorf("creating %s: %w", email, err)
	}
	return rec.UID, true, nil
}

type importResult struct {
	Email   string
	UID     string
	Created bool
	Err     error
}

type profileImporter struct {
	accounts      accountDirectory
	users         core.UserService
	subscriptions core.SubscriptionService
	password      string
	plan          string
	logger        *zap.Logger
}

func (im *profileImporter) importAll(ctx context.Context, records []profileRecord) []importResult {
	results := make([]importResult, 0, len(records))
	for _, rec := range records {
		if ctx.Err() != nil {
			results = append(results, importResult{Email: rec.Email, Err: ctx.Err()})
			continue
		}
		res := im.importOne(ctx, rec)
		if res.Err != nil {
			im.logger.Warn("Profile import failed", zap.String("email", rec.Email), zap.Error(res.Err))
		} else {
			im.logger.Info("Profile imported", zap.String("email", rec.Email), zap.String("uid", res.UID), zap.Bool("accountCreated", res.Created))
		}
		results = append(results, res)
	}
	return results
}

func (im *profileImporter) importOne(ctx context.Context, rec profileRecord) importResult {
	email := strings.ToLower(strings.TrimSpace(rec.Email))
	res := importResult{Email: email}
	if email == "" {
		res.Err = errors.New("entry has no email")
		return res
	}

	uid, created, err := im.accounts.EnsureAccount(ctx, email, strings.TrimSpace(rec.FullName), im.password)
	if err != nil {
		res.Err = err
		return res
	}
	res.UID, res.Created = uid, created

	if _, _, err := im.users.GetOrCreate(ctx, uid, email, strings.TrimSpace(rec.FullName), ""); err != nil {
		res.Err = err
		return res
	}
	if _, err := im.users.UpdateProfile(ctx, uid, rec.profileUpdate()); err != nil {
		res.Err = err
		return res
	}
	if im.plan != "" {
		if _, err := im.subscriptions.SetPlan(ctx, uid, im.plan); err != nil {
			res.Err = err
		}
	}
	return res
}

func runImportProfiles(cmd *cobra.Command, args []string) error {
	if len(importPassword) < 6 {
		return errors.New("--password must be at least 6 characters")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	records, err := parseProfiles(f)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	im := &profileImporter{
		accounts:      firebaseDirectory{client: b.clients.Auth},
		users:         b.users,
		subscriptions: b.subscriptions,
		password:      importPassword,
		plan:          importPlan,
		logger:        logger,
	}
	results := im.importAll(ctx, records)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", r.Email, r.Err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d profiles\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d profiles failed to import", failed)
	}
	return nil
}
