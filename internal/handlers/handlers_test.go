package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/internal/app"
	"github.com/mesh-intelligence/rapport/internal/handlers"
	"github.com/mesh-intelligence/rapport/internal/logger"
	"github.com/mesh-intelligence/rapport/internal/server"
	"github.com/mesh-intelligence/rapport/internal/storetest"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

const jwtSecret = "handler-test-secret"

type fixture struct {
	srv *server.Server
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := types.Clock(func() time.Time { return f.now })

	log := logger.Discard()
	svc := app.NewServices(log, storetest.NewSQLiteStore(t), clock)
	// Tokens are checked against the wall clock by the middleware.
	f.srv = server.NewServer(log, "", jwtSecret,
		handlers.NewPingHandler(log),
		handlers.NewAuthHandler(log, svc.Accounts, jwtSecret, time.Hour, nil),
		handlers.NewContactsHandler(svc.Contacts, svc.Meetings, svc.Coordinator),
		handlers.NewMeetingsHandler(svc.Meetings, svc.Coordinator),
		handlers.NewRemindersHandler(svc.Reminders, 30),
		handlers.NewSharesHandler(svc.Shares),
		handlers.NewDashboardHandler(svc.Dashboard),
	)
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) register(t *testing.T, name, email string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp handlers.TokenResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.User.PasswordHash)
	return resp.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/ping", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodHead, "/health", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/contacts", "", nil).Code)
}

func TestAuth(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ada", "ada@example.com")

	tests := []struct {
		name       string
		path       string
		body       map[string]string
		wantStatus int
	}{
		{"login", "/auth/login", map[string]string{"email": "ADA@example.com", "password": "secret123"}, http.StatusOK},
		{"wrong password", "/auth/login", map[string]string{"email": "ada@example.com", "password": "nope-nope"}, http.StatusUnauthorized},
		{"unknown email", "/auth/login", map[string]string{"email": "bob@example.com", "password": "secret123"}, http.StatusUnauthorized},
		{"missing password", "/auth/login", map[string]string{"email": "ada@example.com"}, http.StatusBadRequest},
		{"email taken", "/auth/register", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret123"}, http.StatusConflict},
		{"short password", "/auth/register", map[string]string{"name": "Bob", "email": "bob@example.com", "password": "abc"}, http.StatusBadRequest},
		{"missing name", "/auth/register", map[string]string{"email": "bob@example.com", "password": "secret123"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestContactLifecycle(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Ada", "ada@example.com")

	rec := f.do(t, http.MethodPost, "/contacts", owner, map[string]any{
		"name":     "Grace Hopper",
		"birthday": "1906-12-09",
		"tags":     []string{"navy"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var contact types.Contact
	decode(t, rec, &contact)
	require.NotEmpty(t, contact.ContactID)

	rec = f.do(t, http.MethodPost, "/contacts", owner, map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/contacts", owner, map[string]any{"name": "Bad", "birthday": "12/09/1906"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/contacts/"+contact.ContactID, owner, map[string]any{"company": "US Navy", "birthday": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated types.Contact
	decode(t, rec, &updated)
	assert.Equal(t, "US Navy", updated.Company)
	assert.Nil(t, updated.Birthday)
	assert.Equal(t, []string{"navy"}, updated.Tags)

	rec = f.do(t, http.MethodGet, "/contacts?q=grace", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list itemsResponse[types.Contact]
	decode(t, rec, &list)
	assert.Len(t, list.Items, 1)

	rec = f.do(t, http.MethodGet, "/reminders", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending itemsResponse[types.Reminder]
	decode(t, rec, &pending)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, types.ReminderBirthday, pending.Items[0].Kind)

	rec = f.do(t, http.MethodPost, "/reminders/"+pending.Items[0].ReminderID+"/dismiss", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dismissed types.Reminder
	decode(t, rec, &dismissed)
	assert.Equal(t, types.ReminderDismissed, dismissed.Status)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/contacts/"+contact.ContactID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/contacts/"+contact.ContactID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/contacts/"+contact.ContactID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/contacts/not-a-uuid", owner, nil).Code)
}

func TestMeetings(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Ada", "ada@example.com")
	adder := f.register(t, "Bob", "bob@example.com")

	rec := f.do(t, http.MethodPost, "/contacts", owner, map[string]any{"name": "Grace"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var contact types.Contact
	decode(t, rec, &contact)

	rec = f.do(t, http.MethodPost, "/shares", owner, map[string]any{
		"contact_id":      contact.ContactID,
		"recipient_email": "bob@example.com",
		"permission":      "VIEW_ADD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/meetings", owner, map[string]any{
		"contact_id":    contact.ContactID,
		"meeting_date":  "2025-02-27",
		"medium":        "phone_call",
		"followup_date": "2025-03-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var meeting types.Meeting
	decode(t, rec, &meeting)
	assert.Equal(t, types.MediumPhoneCall, meeting.Medium)

	rec = f.do(t, http.MethodPost, "/meetings", owner, map[string]any{"contact_id": contact.ContactID, "medium": "carrier pigeon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/meetings/followups", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var followups itemsResponse[types.Meeting]
	decode(t, rec, &followups)
	assert.Len(t, followups.Items, 1)

	rec = f.do(t, http.MethodGet, "/reminders/upcoming?days=30", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Follow up with Grace")
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/reminders/upcoming?days=soon", owner, nil).Code)

	rec = f.do(t, http.MethodGet, "/contacts/"+contact.ContactID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got types.Contact
	decode(t, rec, &got)
	require.NotNil(t, got.LastContactedAt)
	assert.Equal(t, "2025-02-27", got.LastContactedAt.Format("2006-01-02"))

	rec = f.do(t, http.MethodPut, "/meetings/"+meeting.MeetingID, owner, map[string]any{"notes": "talked about COBOL", "followup_date": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var edited types.Meeting
	decode(t, rec, &edited)
	assert.Equal(t, "talked about COBOL", edited.Notes)
	assert.Nil(t, edited.FollowupDate)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, "/meetings/"+meeting.MeetingID, adder, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/meetings/"+meeting.MeetingID, owner, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/meetings/"+meeting.MeetingID, owner, nil).Code)

	rec = f.do(t, http.MethodGet, "/reminders", owner, nil)
	var pending itemsResponse[types.Reminder]
	decode(t, rec, &pending)
	assert.Empty(t, pending.Items)
}

func TestShareScenario(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Ada", "ada@example.com")
	friend := f.register(t, "Bob", "bob@example.com")

	rec := f.do(t, http.MethodPost, "/contacts", owner, map[string]any{"name": "Grace"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var contact types.Contact
	decode(t, rec, &contact)
	contactPath := "/contacts/" + contact.ContactID

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, contactPath, friend, nil).Code)

	expires := f.now.Add(24 * time.Hour)
	rec = f.do(t, http.MethodPost, "/shares", owner, map[string]any{
		"contact_id":      contact.ContactID,
		"recipient_email": "bob@example.com",
		"expires_at":      expires,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var share types.Share
	decode(t, rec, &share)
	assert.Equal(t, types.PermissionView, share.Permission)

	createErrors := []struct {
		name       string
		token      string
		body       map[string]any
		wantStatus int
	}{
		{"duplicate", owner, map[string]any{"contact_id": contact.ContactID, "recipient_email": "bob@example.com"}, http.StatusConflict},
		{"self share", owner, map[string]any{"contact_id": contact.ContactID, "recipient_email": "ada@example.com"}, http.StatusBadRequest},
		{"unknown recipient", owner, map[string]any{"contact_id": contact.ContactID, "recipient_email": "eve@example.com"}, http.StatusNotFound},
		{"bad permission", owner, map[string]any{"contact_id": contact.ContactID, "recipient_email": "bob@example.com", "permission": "EDIT"}, http.StatusBadRequest},
		{"not owner", friend, map[string]any{"contact_id": contact.ContactID, "recipient_email": "ada@example.com"}, http.StatusForbidden},
	}
	for _, tt := range createErrors {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/shares", tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec = f.do(t, http.MethodGet, "/shares/contact/"+contact.ContactID, friend, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var shared handlers.SharedContactResponse
	decode(t, rec, &shared)
	assert.Equal(t, "SHARED", shared.Access)
	assert.Equal(t, types.PermissionView, shared.Permission)
	assert.Equal(t, "Grace", shared.Contact.Name)

	meetingBody := map[string]any{"contact_id": contact.ContactID}
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/meetings", friend, meetingBody).Code)

	rec = f.do(t, http.MethodPut, "/shares/"+share.ShareID, owner, map[string]any{"permission": types.PermissionViewAdd})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPut, "/shares/"+share.ShareID, friend, map[string]any{"permission": types.PermissionView}).Code)

	rec = f.do(t, http.MethodPost, "/meetings", friend, meetingBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var meeting types.Meeting
	decode(t, rec, &meeting)

	rec = f.do(t, http.MethodGet, contactPath+"/meetings", friend, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var meetings itemsResponse[types.Meeting]
	decode(t, rec, &meetings)
	assert.Len(t, meetings.Items, 1)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, contactPath, friend, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPut, contactPath, friend, map[string]any{"name": "G"}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, "/meetings/"+meeting.MeetingID, friend, nil).Code)

	rec = f.do(t, http.MethodGet, "/shares/with-me", friend, nil)
	var withMe itemsResponse[json.RawMessage]
	decode(t, rec, &withMe)
	assert.Len(t, withMe.Items, 1)

	f.now = expires
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/shares/contact/"+contact.ContactID, friend, nil).Code)

	f.now = expires.Add(time.Second)
	assert.Equal(t, http.StatusGone, f.do(t, http.MethodGet, "/shares/contact/"+contact.ContactID, friend, nil).Code)
	assert.Equal(t, http.StatusGone, f.do(t, http.MethodGet, contactPath, friend, nil).Code)
	rec = f.do(t, http.MethodGet, "/shares/with-me", friend, nil)
	decode(t, rec, &withMe)
	assert.Empty(t, withMe.Items)

	rec = f.do(t, http.MethodGet, "/shares/by-me", owner, nil)
	var byMe itemsResponse[json.RawMessage]
	decode(t, rec, &byMe)
	assert.Len(t, byMe.Items, 1)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, contactPath, owner, nil).Code)
	rec = f.do(t, http.MethodGet, "/shares/by-me", owner, nil)
	decode(t, rec, &byMe)
	assert.Empty(t, byMe.Items)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/shares/"+share.ShareID, owner, nil).Code)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "Ada", "ada@example.com")

	rec := f.do(t, http.MethodPost, "/contacts", owner, map[string]any{"name": "Grace", "birthday": "1906-03-04"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/dashboard", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum struct {
		Totals struct {
			Contacts int `json:"contacts"`
		} `json:"totals"`
		UpcomingBirthdays []json.RawMessage `json:"upcoming_birthdays"`
	}
	decode(t, rec, &sum)
	assert.Equal(t, 1, sum.Totals.Contacts)
	assert.Len(t, sum.UpcomingBirthdays, 1)
}
