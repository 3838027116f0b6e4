package weekfitter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/rbright/waybar-weekfitter/internal/weekfitter"
	"github.com/rbright/waybar-weekfitter/internal/weekfitter/weekfittertest"
)

const owner = "runner@example.com"

func newClient(t *testing.T, backend *weekfittertest.Server, opts ...weekfitter.Option) *weekfitter.Client {
	t.Helper()
	opts = append([]weekfitter.Option{weekfitter.WithHTTPClient(backend.Client())}, opts...)
	client, err := weekfitter.New(backend.URL, 5*time.Second, opts...)
	require.NoError(t, err)
	return client
}

func genericRecord(title, start, end string) planner.Record {
	note := ""
	return planner.Record{
		Title:       title,
		Description: &note,
		StartTime:   start,
		EndTime:     end,
		Category:    string(planner.CategoryWork),
	}
}

func TestNew_RejectsInvalidURL(t *testing.T) {
	t.Parallel()

	_, err := weekfitter.New("localhost:8080", time.Second)
	require.Error(t, err)

	client, err := weekfitter.New("http://localhost:8080/", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", client.BaseURL())
}

func TestListEvents_ScopesByOwnerAndSkipsBadRows(t *testing.T) {
	t.Parallel()

	backend := weekfittertest.New(t)
	backend.Seed(owner, genericRecord("Standup", "2025-01-06T09:00", "2025-01-06T09:15"))
	backend.SeedRaw(owner, `{"id":"broken","startTime":12}`)
	backend.Seed("someone@else.com", genericRecord("Hidden", "2025-01-06T09:00", "2025-01-06T10:00"))

	client := newClient(t, backend, weekfitter.WithToken("tok"))
	records, err := client.ListEvents(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Standup", records[0].Title)

	calls := backend.Calls(weekfittertest.RouteListEvents)
	require.Len(t, calls, 1)
	assert.Equal(t, owner, calls[0].Query.Get("email"))
	assert.Equal(t, "Bearer tok", calls[0].Header.Get("Authorization"))

	_, parseErr := uuid.Parse(calls[0].Header.Get(weekfitter.RequestIDHeader))
	assert.NoError(t, parseErr, "request id must be a uuid")
}

func TestListEvents_StatusError(t *testing.T) {
	t.Parallel()

	backend := weekfittertest.New(t)
	backend.Fail(weekfittertest.RouteListEvents, http.StatusBadGateway)

	client := newClient(t, backend)
	_, err := client.ListEvents(context.Background(), owner)
	require.Error(t, err)
	assert.True(t, weekfitter.IsStatus(err, http.StatusBadGateway))
	assert.True(t, weekfitter.Is5xx(err))
	assert.Contains(t, err.Error(), "GET /api/events")
}

func TestCreateUpdateDelete(t *testing.T) {
	t.Parallel()

	backend := weekfittertest.New(t)
	client := newClient(t, backend)
	ctx := context.Background()

	created, err := client.CreateEvent(ctx, owner, genericRecord("Lecture", "2025-01-07T10:00", "2025-01-07T12:00"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	body := backend.Calls(weekfittertest.RouteCreateEvent)[0].Body
	var sent map[string]any
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.NotContains(t, sent, "id", "create must not send an id")
	assert.Contains(t, sent, "sportDescription")
	assert.Nil(t, sent["sportDescription"])

	changed := genericRecord("Lecture (moved)", "2025-01-07T13:00", "2025-01-07T15:00")
	updated, err := client.UpdateEvent(ctx, owner, string(created.ID), changed)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Lecture (moved)", backend.Records(owner)[0].Title)

	require.NoError(t, client.DeleteEvent(ctx, string(created.ID), ""))
	assert.Empty(t, backend.Records(owner))
	deleteCall := backend.Calls(weekfittertest.RouteDeleteEvent)[0]
	assert.Empty(t, deleteCall.Query.Get("email"))

	err = client.DeleteEvent(ctx, string(created.ID), "")
	assert.True(t, weekfitter.IsStatus(err, http.StatusNotFound))
}

func TestDeleteEvent_OwnerScoped(t *testing.T) {
	t.Parallel()

	backend := weekfittertest.New(t)
	ids := backend.Seed(owner, genericRecord("Gym", "2025-01-08T18:00", "2025-01-08T19:00"))
	client := newClient(t, backend)

	err := client.DeleteEvent(context.Background(), ids[0], "intruder@example.com")
	assert.True(t, weekfitter.IsStatus(err, http.StatusForbidden))

	require.NoError(t, client.DeleteEvent(context.Background(), ids[0], owner))
	assert.Equal(t, owner, backend.Calls(weekfittertest.RouteDeleteEvent)[1].Query.Get("email"))
}

func TestUploadFile(t *testing.T) {
	t.Parallel()

	backend := weekfittertest.New(t)
	client := newClient(t, backend)

	path := filepath.Join(t.TempDir(), "track.gpx")
	require.NoError(t, os.WriteFile(path, []byte("<gpx/>"), 0o600))

	stored, err := client.UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/api/files/track.gpx", stored)

	content, ok := backend.Uploaded("track.gpx")
	require.True(t, ok)
	assert.Equal(t, "<gpx/>", string(content))

	_, err = client.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.gpx"))
	require.Error(t, err)

	backend.Fail(weekfittertest.RouteUpload, http.StatusInternalServerError)
	_, err = client.Upload(context.Background(), "again.gpx", strings.NewReader("<gpx/>"))
	assert.True(t, weekfitter.Is5xx(err))
}

func TestUserFlows(t *testing.T) {
	t.Parallel()

	backend := weekfittertest.New(t)
	client := newClient(t, backend)
	ctx := context.Background()

	registered, err := client.Register(ctx, weekfitter.Registration{
		Email:     owner,
		Password:  "hunter22",
		FirstName: "Jana",
	})
	require.NoError(t, err)
	assert.Equal(t, owner, registered.Email)

	_, err = client.Login(ctx, owner, "wrong")
	assert.True(t, weekfitter.IsStatus(err, http.StatusUnauthorized))

	login, err := client.Login(ctx, owner, "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Jana", login.FirstName)
	require.NotEmpty(t, login.Token)

	authed := newClient(t, backend, weekfitter.WithToken(login.Token))
	profile, err := authed.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner, profile.Email)

	profile, err = authed.UpdateProfile(ctx, weekfitter.ProfileUpdate{LastName: "Nováková", Gender: "FEMALE"})
	require.NoError(t, err)
	assert.Equal(t, "Nováková", profile.LastName)
	assert.Equal(t, "Jana", profile.FirstName)

	photo := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(photo, []byte("png"), 0o600))
	profile, err = authed.UploadPhoto(ctx, owner, photo)
	require.NoError(t, err)
	assert.Equal(t, "/api/users/photo/me.png", profile.Photo)

	message, err := client.ForgotPassword(ctx, owner)
	require.NoError(t, err)
	assert.NotEmpty(t, message)

	token := backend.ResetToken(owner)
	require.NotEmpty(t, token)
	_, err = client.ResetPassword(ctx, token, "correct-horse")
	require.NoError(t, err)

	_, err = client.Login(ctx, owner, "correct-horse")
	require.NoError(t, err)

	_, err = client.ResetPassword(ctx, token, "again")
	assert.True(t, weekfitter.IsStatus(err, http.StatusBadRequest))
}

func TestProfile_RequiresToken(t *testing.T) {
	t.Parallel()

	backend := weekfittertest.New(t)
	backend.AddUser(owner, "pw", "Jana")

	_, err := newClient(t, backend).Profile(context.Background())
	assert.True(t, weekfitter.IsStatus(err, http.StatusUnauthorized))

	expired := weekfittertest.Token(owner, -time.Minute)
	_, err = newClient(t, backend, weekfitter.WithToken(expired)).Profile(context.Background())
	assert.True(t, weekfitter.IsStatus(err, http.StatusUnauthorized))
}
