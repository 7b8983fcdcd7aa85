package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/logging"
	"github.com/dmitrijs2005/gophsocial/internal/server/config"
	"github.com/dmitrijs2005/gophsocial/internal/server/mail"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/notify"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	return m.sent[len(m.sent)-1]
}

type delivered struct {
	userID string
	event  notify.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []delivered
}

func (n *recordingNotifier) Notify(_ context.Context, userID string, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, delivered{userID: userID, event: ev})
}

func (n *recordingNotifier) types(userID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, d := range n.events {
		if d.userID == userID {
			out = append(out, d.event.Type)
		}
	}
	return out
}

type testEnv struct {
	rm       *repomanager.MemoryRepositoryManager
	users    *UserService
	social   *SocialService
	posts    *PostService
	mailer   *recordingMailer
	notifier *recordingNotifier
	clock    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AppURL = "http://app.test/"

	env := &testEnv{
		rm:       repomanager.NewMemoryRepositoryManager(),
		mailer:   &recordingMailer{},
		notifier: &recordingNotifier{},
		clock:    time.Now(),
	}
	env.users = NewUserService(env.rm, env.mailer, logging.Nop{}, cfg)
	env.users.now = func() time.Time { return env.clock }
	env.social = NewSocialService(env.rm, env.notifier, logging.Nop{})
	env.posts = NewPostService(env.rm, env.notifier, logging.Nop{})
	return env
}

// advance moves the service clock forward.
func (e *testEnv) advance(d time.Duration) { e.clock = e.clock.Add(d) }

// newUser creates a verified account directly in storage.
func (e *testEnv) newUser(t *testing.T, first string) *models.User {
	t.Helper()
	u, err := e.rm.Users().Create(context.Background(), &models.User{
		FirstName: first,
		LastName:  "Test",
		Email:     first + "@example.com",
		Verified:  true,
	})
	require.NoError(t, err)
	return u
}

// befriend makes a and b friends through the request flow.
func (e *testEnv) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	fr, err := e.social.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = e.social.RespondToRequest(ctx, b.ID, fr.ID, models.RequestStatusAccepted)
	require.NoError(t, err)
}

var linkRe = regexp.MustCompile(`/users/(?:verify|reset-password)/([^/\s]+)/([0-9a-f]+)`)

// linkToken extracts the user id and secret from a mailed link.
func linkToken(t *testing.T, msg mail.Message) (string, string) {
	t.Helper()
	m := linkRe.FindStringSubmatch(msg.Body)
	require.Len(t, m, 3, "no link in %q", msg.Body)
	return m[1], m[2]
}
