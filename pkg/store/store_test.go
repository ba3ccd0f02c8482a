package store

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/abhishekgusain07/studioanimations.app/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive and
	// serializes concurrent transactions the way a file database would
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Conversation{}, &models.Animation{}, &models.Message{}))
	return New(db)
}

func TestCreateConversationTitleRules(t *testing.T) {
	st := newTestStore(t)

	conv, err := st.CreateConversation("u1", "", "show me a bouncing ball")
	require.NoError(t, err)
	require.Equal(t, "Show me a bouncing ball", conv.Title)

	conv, err = st.CreateConversation("u1", "", "animate the pythagorean theorem with rotating squares please")
	require.NoError(t, err)
	require.Equal(t, "Animate the pythagorean theorem with...", conv.Title)

	conv, err = st.CreateConversation("u1", "My title", "ignored prompt")
	require.NoError(t, err)
	require.Equal(t, "My title", conv.Title)

	conv, err = st.CreateConversation("u1", "", "")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(conv.Title, "Conversation "))

	_, err = st.CreateConversation("", "", "whatever")
	require.ErrorIs(t, err, ErrValidation)
}

func TestResolveOrCreate(t *testing.T) {
	st := newTestStore(t)

	created, err := st.ResolveOrCreate("u1", "", "first prompt")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := st.ResolveOrCreate("u1", created.ID, "")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	// an explicit id never creates implicitly
	_, err = st.ResolveOrCreate("u1", "no-such-id", "")
	require.ErrorIs(t, err, ErrNotFound)

	// ownership is part of the lookup
	_, err = st.ResolveOrCreate("u2", created.ID, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRenameConversation(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "Before", "")
	require.NoError(t, err)

	_, err = st.RenameConversation(conv.ID, "u1", "   ")
	require.ErrorIs(t, err, ErrValidation)

	_, err = st.RenameConversation(conv.ID, "u2", "After")
	require.ErrorIs(t, err, ErrNotFound)

	renamed, err := st.RenameConversation(conv.ID, "u1", "After")
	require.NoError(t, err)
	require.Equal(t, "After", renamed.Title)
	require.False(t, renamed.UpdatedAt.Before(renamed.CreatedAt))
}

func TestVersionsAreSequentialPerConversation(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "versions")
	require.NoError(t, err)
	other, err := st.CreateConversation("u1", "", "other thread")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		anim, err := st.CreateAnimation(conv.ID, "u1", fmt.Sprintf("query %d", i), models.QualityLow)
		require.NoError(t, err)
		require.Equal(t, i, anim.Version)
	}

	// a different conversation starts back at 1
	anim, err := st.CreateAnimation(other.ID, "u1", "query", models.QualityLow)
	require.NoError(t, err)
	require.Equal(t, 1, anim.Version)
}

func TestConcurrentSubmissionsNeverCollideOnVersion(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "race")
	require.NoError(t, err)

	const n = 10
	versions := make(chan int, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			anim, err := st.CreateAnimation(conv.ID, "u1", fmt.Sprintf("concurrent %d", i), models.QualityLow)
			if err != nil {
				errs <- err
				return
			}
			versions <- anim.Version
		}(i)
	}
	wg.Wait()
	close(versions)
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	seen := map[int]bool{}
	for v := range versions {
		require.False(t, seen[v], "version %d assigned twice", v)
		seen[v] = true
	}
	for v := 1; v <= n; v++ {
		require.True(t, seen[v], "version %d missing", v)
	}
}

func TestCreateAnimationValidation(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "validation")
	require.NoError(t, err)

	_, err = st.CreateAnimation(conv.ID, "u1", "", models.QualityLow)
	require.ErrorIs(t, err, ErrValidation)

	_, err = st.CreateAnimation(conv.ID, "u1", "query", "ultra")
	require.ErrorIs(t, err, ErrValidation)

	// a query with no letters cannot describe a scene
	_, err = st.CreateAnimation(conv.ID, "u1", "12345 !?", models.QualityLow)
	require.ErrorIs(t, err, ErrValidation)

	_, err = st.CreateAnimation("missing", "u1", "query", models.QualityLow)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusTransitions(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "transitions")
	require.NoError(t, err)
	anim, err := st.CreateAnimation(conv.ID, "u1", "a spinning cube", models.QualityLow)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, anim.Status)
	require.Zero(t, anim.Progress)

	require.NoError(t, st.MarkProcessing(anim.ID))
	// a second runner can never pick up the same job
	require.Error(t, st.MarkProcessing(anim.ID))

	require.NoError(t, st.SetProgress(anim.ID, 42, "Rendering animation"))
	cur, err := st.GetAnimation(anim.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.StatusProcessing, cur.Status)
	require.Equal(t, 42.0, cur.Progress)

	// progress never moves backwards
	require.NoError(t, st.SetProgress(anim.ID, 10, "stale update"))
	cur, err = st.GetAnimation(anim.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, 42.0, cur.Progress)

	// progress is clamped to 100
	require.NoError(t, st.SetProgress(anim.ID, 250, "overshoot"))
	cur, err = st.GetAnimation(anim.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, 100.0, cur.Progress)

	require.NoError(t, st.MarkCompleted(anim.ID, "/manim_videos/x.mp4"))
	cur, err = st.GetAnimation(anim.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, cur.Status)
	require.Equal(t, 100.0, cur.Progress)
	require.Equal(t, "/manim_videos/x.mp4", cur.VideoURL)
	require.True(t, cur.Success)

	// terminal states are final
	require.Error(t, st.MarkFailed(anim.ID, "too late"))
	require.Error(t, st.MarkCompleted(anim.ID, "/other.mp4"))
}

func TestFailureKeepsLastProgress(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "failure")
	require.NoError(t, err)
	anim, err := st.CreateAnimation(conv.ID, "u1", "broken scene", models.QualityLow)
	require.NoError(t, err)

	require.NoError(t, st.MarkProcessing(anim.ID))
	require.NoError(t, st.SetProgress(anim.ID, 55, "Rendering animation"))
	require.NoError(t, st.MarkFailed(anim.ID, "manim execution failed"))

	cur, err := st.GetAnimation(anim.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, cur.Status)
	require.Equal(t, 55.0, cur.Progress)
	require.Equal(t, "manim execution failed", cur.ErrorMessage)
	require.False(t, cur.Success)
	require.Empty(t, cur.VideoURL)
}

func TestGetStatusHidesVideoURLUntilCompleted(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "status view")
	require.NoError(t, err)
	anim, err := st.CreateAnimation(conv.ID, "u1", "a circle", models.QualityLow)
	require.NoError(t, err)

	view, err := st.GetStatus(anim.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, view.Status)
	require.Empty(t, view.VideoURL)

	// another user cannot see the animation at all
	_, err = st.GetStatus(anim.ID, "u2")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.MarkProcessing(anim.ID))
	require.NoError(t, st.MarkCompleted(anim.ID, "/manim_videos/done.mp4"))

	view, err = st.GetStatus(anim.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, view.Status)
	require.Equal(t, "/manim_videos/done.mp4", view.VideoURL)
}

func TestDeleteConversationCascades(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "cascade")
	require.NoError(t, err)
	anim, err := st.CreateAnimation(conv.ID, "u1", "doomed", models.QualityLow)
	require.NoError(t, err)
	_, err = st.CreateMessage(conv.ID, "u1", "hello", models.MessageTypeUser, nil)
	require.NoError(t, err)

	require.ErrorIs(t, st.DeleteConversation(conv.ID, "u2"), ErrNotFound)
	require.NoError(t, st.DeleteConversation(conv.ID, "u1"))

	_, err = st.GetStatus(anim.ID, "u1")
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = st.ListMessages(conv.ID, "u1", 0, 10)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, st.DeleteConversation(conv.ID, "u1"), ErrNotFound)
}

func TestSweepStaleFailsLostJobs(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "sweep")
	require.NoError(t, err)
	stuck, err := st.CreateAnimation(conv.ID, "u1", "stuck render", models.QualityLow)
	require.NoError(t, err)
	require.NoError(t, st.MarkProcessing(stuck.ID))
	done, err := st.CreateAnimation(conv.ID, "u1", "finished render", models.QualityLow)
	require.NoError(t, err)
	require.NoError(t, st.MarkProcessing(done.ID))
	require.NoError(t, st.MarkCompleted(done.ID, "/manim_videos/ok.mp4"))

	// nothing is stale yet with a generous threshold
	n, err := st.SweepStale(time.Hour)
	require.NoError(t, err)
	require.Zero(t, n)

	// threshold zero treats every non-terminal record as lost
	n, err = st.SweepStale(0)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	cur, err := st.GetAnimation(stuck.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, cur.Status)
	require.Equal(t, LostJobMessage, cur.ErrorMessage)

	// the completed record is untouched
	cur, err = st.GetAnimation(done.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, cur.Status)
}

func TestSidebarOrderingAndProjection(t *testing.T) {
	st := newTestStore(t)

	first, err := st.CreateConversation("u1", "", "older thread")
	require.NoError(t, err)
	_, err = st.CreateAnimation(first.ID, "u1", "first query", models.QualityLow)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	second, err := st.CreateConversation("u1", "", "newer thread")
	require.NoError(t, err)
	_, err = st.CreateAnimation(second.ID, "u1", "second query v1", models.QualityLow)
	require.NoError(t, err)
	_, err = st.CreateAnimation(second.ID, "u1", "second query v2", models.QualityLow)
	require.NoError(t, err)

	entries, err := st.Sidebar("u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, second.ID, entries[0].ConversationID)
	require.Equal(t, 2, entries[0].AnimationCount)
	require.Equal(t, "second query v2", entries[0].Preview)
	require.Equal(t, first.ID, entries[1].ConversationID)
	require.Equal(t, 1, entries[1].AnimationCount)

	// other users see nothing
	entries, err = st.Sidebar("u2", 0, 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestListConversationsOrderAndPagination(t *testing.T) {
	st := newTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := st.CreateConversation("u1", fmt.Sprintf("conv %d", i), "")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	convs, err := st.ListConversations("u1", 0, 2)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	require.Equal(t, "conv 2", convs[0].Title)

	convs, err = st.ListConversations("u1", 2, 2)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	require.Equal(t, "conv 0", convs[0].Title)
}

func TestMessages(t *testing.T) {
	st := newTestStore(t)
	conv, err := st.CreateConversation("u1", "", "messages")
	require.NoError(t, err)

	_, err = st.CreateMessage(conv.ID, "u1", "", models.MessageTypeUser, nil)
	require.ErrorIs(t, err, ErrValidation)
	_, err = st.CreateMessage(conv.ID, "u1", "hi", "bot", nil)
	require.ErrorIs(t, err, ErrValidation)
	_, err = st.CreateMessage("", "u1", "hi", models.MessageTypeUser, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = st.CreateMessage(conv.ID, "u1", "draw a sphere", models.MessageTypeUser, nil)
	require.NoError(t, err)
	anim, err := st.CreateAnimation(conv.ID, "u1", "draw a sphere", models.QualityLow)
	require.NoError(t, err)
	_, err = st.CreateMessage(conv.ID, "u1", "here is your animation", models.MessageTypeAI, &anim.ID)
	require.NoError(t, err)

	msgs, total, err := st.ListMessages(conv.ID, "u1", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, msgs, 2)
	require.Equal(t, models.MessageTypeUser, msgs[0].Type)
	require.Equal(t, models.MessageTypeAI, msgs[1].Type)
	require.NotNil(t, msgs[1].AnimationID)
	require.Equal(t, anim.ID, *msgs[1].AnimationID)
}
