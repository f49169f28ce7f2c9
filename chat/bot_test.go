package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/mi-thom/birthday-herald/birthday"
	"github.com/mi-thom/birthday-herald/config"
	"github.com/mi-thom/birthday-herald/db"
	"github.com/mi-thom/birthday-herald/testutil"
)

type spyConn struct {
	said []string
}

func (s *spyConn) Say(channel, text string) { s.said = append(s.said, text) }

func (s *spyConn) last() string {
	if len(s.said) == 0 {
		return ""
	}
	return s.said[len(s.said)-1]
}

type fakeFollows struct {
	follower bool
	err      error
}

func (f *fakeFollows) IsFollower(ctx context.Context, channel, user string) (bool, error) {
	return f.follower, f.err
}

type fakeResolver struct {
	ids map[string]string
}

func (f *fakeResolver) GetUserID(ctx context.Context, login string) (string, error) {
	id, ok := f.ids[login]
	if !ok {
		return "", errors.New("user not found")
	}
	return id, nil
}

func testBotConfig() *config.Config {
	return &config.Config{
		TwitchChannel:   "streamer",
		BirthdayCommand: "!birthday",
		DateFormat:      "02/01/2006",
		AnnounceFormat:  "02/01",
		AddMe:           true,
	}
}

func newTestBot(t *testing.T, follows FollowChecker, users UserResolver) (*Bot, *spyConn, *birthday.Store) {
	t.Helper()
	store := birthday.NewStore(db.NewHandle(testutil.SetupSQLite(t), time.Second))
	conn := &spyConn{}
	b := &Bot{
		cfg:       testBotConfig(),
		birthdays: store,
		follows:   follows,
		users:     users,
		conn:      conn,
	}
	return b, conn, store
}

func viewerMessage(text string) twitch.PrivateMessage {
	return twitch.PrivateMessage{
		Message: text,
		User:    twitch.User{ID: "u100", Name: "viewer"},
	}
}

func modMessage(text string) twitch.PrivateMessage {
	return twitch.PrivateMessage{
		Message: text,
		User:    twitch.User{ID: "u1", Name: "modster", Badges: map[string]int{"moderator": 1}},
	}
}

func TestSelfSubmissionStoresBirthday(t *testing.T) {
	b, conn, store := newTestBot(t, &fakeFollows{follower: true}, &fakeResolver{})

	b.handleMessage(context.Background(), viewerMessage("!birthday 02/03/1990"))

	rec, err := store.Find(context.Background(), "u100")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if rec == nil || rec.Username != "viewer" {
		t.Fatalf("record = %+v", rec)
	}
	want := time.Date(1990, time.March, 2, 0, 0, 0, 0, time.UTC)
	if !rec.Birthday.Equal(want) {
		t.Fatalf("birthday = %v, want %v", rec.Birthday, want)
	}
	if !strings.Contains(conn.last(), "saved viewer's birthday: 02/03") {
		t.Fatalf("reply = %q", conn.last())
	}
	if !strings.HasPrefix(conn.last(), "/me @viewer") {
		t.Fatalf("reply missing /me mention prefix: %q", conn.last())
	}
}

func TestNonFollowerRejected(t *testing.T) {
	b, conn, store := newTestBot(t, &fakeFollows{follower: false}, &fakeResolver{})

	b.handleMessage(context.Background(), viewerMessage("!birthday 02/03/1990"))

	if rec, _ := store.Find(context.Background(), "u100"); rec != nil {
		t.Fatalf("non-follower submission stored: %+v", rec)
	}
	if !strings.Contains(conn.last(), "follow") {
		t.Fatalf("reply = %q", conn.last())
	}
}

func TestFollowLookupFailureFailsOpen(t *testing.T) {
	b, _, store := newTestBot(t, &fakeFollows{err: errors.New("api down")}, &fakeResolver{})

	b.handleMessage(context.Background(), viewerMessage("!birthday 02/03/1990"))

	if rec, _ := store.Find(context.Background(), "u100"); rec == nil {
		t.Fatal("submission dropped during followage outage")
	}
}

func TestMalformedDateGetsValidationReply(t *testing.T) {
	b, conn, store := newTestBot(t, &fakeFollows{follower: true}, &fakeResolver{})

	b.handleMessage(context.Background(), viewerMessage("!birthday 1990-03-02"))

	if rec, _ := store.Find(context.Background(), "u100"); rec != nil {
		t.Fatalf("malformed date stored: %+v", rec)
	}
	if !strings.Contains(conn.last(), "02/01/2006") {
		t.Fatalf("reply should show the expected format, got %q", conn.last())
	}
}

func TestModOverrideStoresForTarget(t *testing.T) {
	resolver := &fakeResolver{ids: map[string]string{"alice": "u55"}}
	b, conn, store := newTestBot(t, &fakeFollows{}, resolver)

	b.handleMessage(context.Background(), modMessage("!birthday @Alice 15/07/1992"))

	rec, err := store.Find(context.Background(), "u55")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if rec == nil || rec.Username != "alice" {
		t.Fatalf("record = %+v", rec)
	}
	if !strings.Contains(conn.last(), "saved alice's birthday: 15/07") {
		t.Fatalf("reply = %q", conn.last())
	}
}

func TestModOverrideRequiresBadge(t *testing.T) {
	resolver := &fakeResolver{ids: map[string]string{"alice": "u55"}}
	b, conn, store := newTestBot(t, &fakeFollows{follower: true}, resolver)

	b.handleMessage(context.Background(), viewerMessage("!birthday alice 15/07/1992"))

	if rec, _ := store.Find(context.Background(), "u55"); rec != nil {
		t.Fatalf("unprivileged override stored: %+v", rec)
	}
	if !strings.Contains(conn.last(), "moderators") {
		t.Fatalf("reply = %q", conn.last())
	}
}

func TestUnrelatedChatterIgnored(t *testing.T) {
	b, conn, _ := newTestBot(t, &fakeFollows{follower: true}, &fakeResolver{})

	b.handleMessage(context.Background(), viewerMessage("hello everyone"))
	b.handleMessage(context.Background(), viewerMessage("!birthdays soon?"))

	if len(conn.said) != 0 {
		t.Fatalf("bot replied to unrelated chatter: %v", conn.said)
	}
}

func TestSenderRoutesThroughChannel(t *testing.T) {
	b, conn, _ := newTestBot(t, &fakeFollows{}, &fakeResolver{})

	if err := b.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := b.SendWhisper(context.Background(), "streamer", "psst"); err != nil {
		t.Fatalf("SendWhisper: %v", err)
	}
	if conn.said[0] != "hello" {
		t.Fatalf("message = %q", conn.said[0])
	}
	if conn.said[1] != "/w streamer psst" {
		t.Fatalf("whisper = %q", conn.said[1])
	}
}
