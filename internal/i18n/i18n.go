// Package i18n holds the user-facing fallback messages shown when the API
// does not provide one, in every supported locale.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys
const (
	Network      = "network"
	Unauthorized = "unauthorized"
	Server       = "server"
	Validation   = "validation"
	Unknown      = "unknown"

	SessionExpired = "session_expired"
	NoRefreshToken = "no_refresh_token"

	LoginFailed          = "login_failed"
	RegisterFailed       = "register_failed"
	RefreshFailed        = "refresh_failed"
	PasswordResetFailed  = "password_reset_failed"
	ProfileLoadFailed    = "profile_load_failed"
	ProfileUpdateFailed  = "profile_update_failed"
	CreatorsLoadFailed   = "creators_load_failed"
	CreatorLoadFailed    = "creator_load_failed"
	CreatorCreateFailed  = "creator_create_failed"
	CreatorUpdateFailed  = "creator_update_failed"
	CreatorDeleteFailed  = "creator_delete_failed"
	PlatformConnect      = "platform_connect_failed"
	PlatformDisconnect   = "platform_disconnect_failed"
	PlatformSync         = "platform_sync_failed"
	ContentsLoadFailed   = "contents_load_failed"
	ContentLoadFailed    = "content_load_failed"
	ContentUploadFailed  = "content_upload_failed"
	ContentUpdateFailed  = "content_update_failed"
	ContentDeleteFailed  = "content_delete_failed"
	ContentSchedule      = "content_schedule_failed"
	ContentPublish       = "content_publish_failed"
	AnalyticsLoadFailed  = "analytics_load_failed"
	ContentAnalytics     = "content_analytics_failed"
	SubscribersLoad      = "subscribers_load_failed"
	SubscribersExport    = "subscribers_export_failed"

	// Form validation, formatted with the field name first
	FieldRequired = "field_required"
	FieldEmail    = "field_email"
	FieldTooShort = "field_too_short"
	FieldTooLong  = "field_too_long"
	FieldChoice   = "field_choice"
	FieldFuture   = "field_future"
	FieldInvalid  = "field_invalid"
	MediaEmpty    = "media_empty"
	MediaType     = "media_type"
	MediaTooLarge = "media_too_large"
)

var supported = []language.Tag{language.English, language.German}

var entries = map[string][2]string{ // key -> {en, de}
	Network:      {"Network error. Please check your internet connection.", "Netzwerkfehler. Bitte überprüfe deine Internetverbindung."},
	Unauthorized: {"Not authorized. Please sign in again.", "Nicht autorisiert. Bitte melde dich erneut an."},
	Server:       {"Server error. Please try again later.", "Serverfehler. Bitte versuche es später erneut."},
	Validation:   {"Please check your input.", "Bitte überprüfe deine Eingaben."},
	Unknown:      {"An unknown error occurred.", "Ein unbekannter Fehler ist aufgetreten."},

	SessionExpired: {"Session expired. Please sign in again.", "Session abgelaufen. Bitte erneut anmelden."},
	NoRefreshToken: {"No refresh token available", "Kein Refresh Token vorhanden"},

	LoginFailed:         {"Login failed", "Login fehlgeschlagen"},
	RegisterFailed:      {"Registration failed", "Registrierung fehlgeschlagen"},
	RefreshFailed:       {"Token refresh failed", "Token-Aktualisierung fehlgeschlagen"},
	PasswordResetFailed: {"Failed to reset password", "Fehler beim Zurücksetzen des Passworts"},
	ProfileLoadFailed:   {"Failed to load user profile", "Fehler beim Laden des Benutzerprofils"},
	ProfileUpdateFailed: {"Failed to update profile", "Fehler beim Aktualisieren des Profils"},
	CreatorsLoadFailed:  {"Failed to load creators", "Fehler beim Laden der Creator"},
	CreatorLoadFailed:   {"Failed to load creator", "Fehler beim Laden des Creators"},
	CreatorCreateFailed: {"Failed to create creator", "Fehler beim Erstellen des Creators"},
	CreatorUpdateFailed: {"Failed to update creator", "Fehler beim Aktualisieren des Creators"},
	CreatorDeleteFailed: {"Failed to delete creator", "Fehler beim Löschen des Creators"},
	PlatformConnect:     {"Failed to connect platform", "Fehler beim Verbinden der Plattform"},
	PlatformDisconnect:  {"Failed to disconnect platform", "Fehler beim Trennen der Plattform"},
	PlatformSync:        {"Failed to sync platform", "Fehler beim Synchronisieren der Plattform"},
	ContentsLoadFailed:  {"Failed to load contents", "Fehler beim Laden der Inhalte"},
	ContentLoadFailed:   {"Failed to load content", "Fehler beim Laden des Inhalts"},
	ContentUploadFailed: {"Failed to upload content", "Fehler beim Upload des Inhalts"},
	ContentUpdateFailed: {"Failed to update content", "Fehler beim Aktualisieren des Inhalts"},
	ContentDeleteFailed: {"Failed to delete content", "Fehler beim Löschen des Inhalts"},
	ContentSchedule:     {"Failed to schedule content", "Fehler beim Planen des Inhalts"},
	ContentPublish:      {"Failed to publish content", "Fehler beim Veröffentlichen des Inhalts"},
	AnalyticsLoadFailed: {"Failed to load analytics", "Fehler beim Laden der Analytics"},
	ContentAnalytics:    {"Failed to load content analytics", "Fehler beim Laden der Content-Analytics"},
	SubscribersLoad:     {"Failed to load subscribers", "Fehler beim Laden der Abonnenten"},
	SubscribersExport:   {"Failed to export subscribers", "Fehler beim Exportieren der Abonnenten"},

	FieldRequired: {"%s is required", "%s ist erforderlich"},
	FieldEmail:    {"%s must be a valid email address", "%s muss eine gültige E-Mail-Adresse sein"},
	FieldTooShort: {"%s must be at least %s characters long", "%s muss mindestens %s Zeichen lang sein"},
	FieldTooLong:  {"%s must be at most %s characters long", "%s darf höchstens %s Zeichen lang sein"},
	FieldChoice:   {"%s must be one of: %s", "%s muss einer der folgenden Werte sein: %s"},
	FieldFuture:   {"%s must be in the future", "%s muss in der Zukunft liegen"},
	FieldInvalid:  {"%s is invalid", "%s ist ungültig"},
	MediaEmpty:    {"The file is empty", "Die Datei ist leer"},
	MediaType:     {"Unsupported media type %s", "Nicht unterstützter Medientyp %s"},
	MediaTooLarge: {"The file is too large (%s, at most %s allowed)", "Die Datei ist zu groß (%s, erlaubt sind höchstens %s)"},
}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher(supported)
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, texts := range entries {
		for i, tag := range supported {
			if err := b.SetString(tag, key, texts[i]); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Translator resolves message keys for a single locale.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Translator for the best supported match of locale
// (e.g. "de", "de-AT", "en-US"). Unknown locales fall back to English.
func New(locale string) *Translator {
	tag, _ := language.MatchStrings(matcher, locale)
	base, _ := tag.Base()
	tag = language.Make(base.String())

	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Tag returns the resolved language.
func (t *Translator) Tag() language.Tag {
	return t.tag
}

// T returns the message for key, formatted with args.
func (t *Translator) T(key string, args ...any) string {
	if t == nil {
		return New("en").T(key, args...)
	}
	return t.printer.Sprintf(key, args...)
}
