package core

import (
	"regexp"
	"strings"

	"tapcard-backend/internal/models"
)

// Contact is the subset of a card or profile that goes into a vCard.
type Contact struct {
	FullName     string
	Title        string
	Organization string
	Phone        string
	Email        string
	Website      string
	Note         string
	LinkedIn     string
	Twitter      string
	Instagram    string
	Facebook     string
	PhotoURL     string
}

// ContactFromCard maps a card onto vCard fields.
func ContactFromCard(c *models.Card) Contact {
	return Contact{
		FullName:     c.FullName,
		Title:        c.Designation,
		Organization: c.Company,
		Phone:        c.Phone,
		Email:        c.Email,
		Website:      c.Website,
		Note:         c.Bio,
		LinkedIn:     c.LinkedIn,
		Twitter:      c.Twitter,
		Instagram:    c.Instagram,
		Facebook:     c.Facebook,
		PhotoURL:     c.ProfileURL,
	}
}

// ContactFromUser maps a user profile onto vCard fields.
func ContactFromUser(u *models.User) Contact {
	return Contact{
		FullName:     u.FullName,
		Title:        u.Designation,
		Organization: u.Company,
		Phone:        u.Phone,
		Email:        u.Email,
		Website:      u.Website,
		Note:         u.Bio,
		LinkedIn:     u.LinkedIn,
		Twitter:      u.Twitter,
		Instagram:    u.Instagram,
		Facebook:     u.Facebook,
		PhotoURL:     u.ProfileImage,
	}
}

const crlf = "\r\n"

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// EncodeVCard renders c as a vCard 3.0 document with CRLF line endings.
// Only FN is always present; every other property is omitted when empty.
// The output is a pure function of c.
func EncodeVCard(c Contact) []byte {
	lines := []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:" + singleLine(c.FullName),
	}
	add := func(prefix, value string) {
		if value != "" {
			lines = append(lines, prefix+value)
		}
	}

	add("TITLE:", singleLine(c.Title))
	add("ORG:", singleLine(c.Organization))
	add("TEL;TYPE=CELL:", nonPhoneChars.ReplaceAllString(c.Phone, ""))
	add("EMAIL:", singleLine(c.Email))
	add("URL:", singleLine(c.Website))
	add("NOTE:", escapeNote(c.Note))
	add("URL;TYPE=LinkedIn:", singleLine(c.LinkedIn))
	add("URL;TYPE=Twitter:", singleLine(c.Twitter))
	add("URL;TYPE=Instagram:", singleLine(c.Instagram))
	add("URL;TYPE=Facebook:", singleLine(c.Facebook))
	add("PHOTO;VALUE=URL;TYPE=JPEG:", singleLine(c.PhotoURL))

	lines = append(lines, "END:VCARD")
	return []byte(strings.Join(lines, crlf))
}

// escapeNote turns line breaks into the two character sequence \n, then
// escapes commas as \, in that order.
func escapeNote(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", `\n`)
	return strings.ReplaceAll(s, ",", `\,`)
}

// singleLine keeps a property value on one line so it cannot start a new property.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(strings.NewReplacer("\r", " ", "\n", " ").Replace(s)), " ")
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// VCardFilename derives the download name from a slug or link.
func VCardFilename(slug string) string {
	name := unsafeFilenameChars.ReplaceAllString(strings.ReplaceAll(NormalizeLink(slug), "/", "-"), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = "contact"
	}
	return name + ".vcf"
}
