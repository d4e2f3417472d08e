package telegram_test

import (
	"civicdesk/backend/internal/localization"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/telegram"
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSender is a mock implementation of the Sender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func text(want string) interface{} {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		m, ok := c.(tgbotapi.MessageConfig)
		return ok && m.Text == want
	})
}

func newNotifier(t *testing.T, sender telegram.Sender) *telegram.Notifier {
	t.Helper()
	l, err := localization.Bundled()
	require.NoError(t, err)
	return &telegram.Notifier{Sender: sender, Localizer: l, Language: "en", AdminChatID: 100, Logger: zap.NewNop()}
}

func TestMessages_StatusChanged(t *testing.T) {
	n := newNotifier(t, nil)
	king := &models.User{ID: "k1", TelegramChatID: 200}
	event := models.ComplaintEvent{Type: models.EventStatusChanged, ComplaintID: "c1", Category: "lighting", Status: models.StatusAcknowledged, ActorID: "god"}

	got := n.Messages(event, telegram.Recipients{King: king})

	assert.Equal(t, []telegram.Message{
		{ChatID: 100, Text: "Complaint c1 in lighting is now Acknowledged."},
		{ChatID: 200, Text: "Complaint c1 in lighting is now Acknowledged."},
	}, got)
}

func TestMessages_SkipsActorAndMissingChat(t *testing.T) {
	n := newNotifier(t, nil)
	event := models.ComplaintEvent{Type: models.EventStatusChanged, ComplaintID: "c1", Category: "lighting", Status: models.StatusResolved, ActorID: "k1"}

	got := n.Messages(event, telegram.Recipients{King: &models.User{ID: "k1", TelegramChatID: 200}})
	require.Len(t, got, 1, "no copy to the resolving king")
	assert.Equal(t, "Complaint c1 in lighting was resolved.", got[0].Text)

	n.AdminChatID = 0
	assert.Empty(t, n.Messages(event, telegram.Recipients{King: &models.User{ID: "k2"}}))
}

func TestMessages_EveryLanguageFormatsCleanly(t *testing.T) {
	n := newNotifier(t, nil)
	king := &models.User{ID: "k1", Username: "ward-a", TelegramChatID: 200}
	old := &models.User{ID: "k2", TelegramChatID: 201}
	events := []models.ComplaintEvent{
		{Type: models.EventStatusChanged, ComplaintID: "c1", Category: "lighting", Status: models.StatusAcknowledged},
		{Type: models.EventStatusChanged, ComplaintID: "c1", Category: "lighting", Status: models.StatusResolved},
		{Type: models.EventCategoryAssigned, Category: "lighting", KingID: "k1", PreviousKingID: "k2"},
		{Type: models.EventCategoryUnassigned, Category: "lighting", PreviousKingID: "k2"},
	}

	for _, lang := range n.Localizer.Languages() {
		n.Language = lang
		for _, event := range events {
			for _, m := range n.Messages(event, telegram.Recipients{King: king, PreviousKing: old}) {
				assert.False(t, strings.Contains(m.Text, "%!"), "%s %s: %q", lang, event.Type, m.Text)
			}
		}
	}
}

func TestMessages_Assignment(t *testing.T) {
	n := newNotifier(t, nil)
	newKing := &models.User{ID: "k2", Username: "ward-b", TelegramChatID: 202}
	oldKing := &models.User{ID: "k1", TelegramChatID: 201}

	got := n.Messages(models.ComplaintEvent{Type: models.EventCategoryAssigned, Category: "sanitation", KingID: "k2", PreviousKingID: "k1", ActorID: "god"},
		telegram.Recipients{King: newKing, PreviousKing: oldKing})

	assert.Equal(t, []telegram.Message{
		{ChatID: 100, Text: "ward-b now rules sanitation."},
		{ChatID: 202, Text: "You now rule sanitation."},
		{ChatID: 201, Text: "You no longer rule sanitation."},
	}, got)

	got = n.Messages(models.ComplaintEvent{Type: models.EventCategoryUnassigned, Category: "sanitation", PreviousKingID: "k1", ActorID: "god"},
		telegram.Recipients{PreviousKing: oldKing})

	assert.Equal(t, []telegram.Message{
		{ChatID: 100, Text: "sanitation has no king."},
		{ChatID: 201, Text: "You no longer rule sanitation."},
	}, got)
}

func TestMessages_ReassignSameKingSendsNoRevoke(t *testing.T) {
	n := newNotifier(t, nil)
	king := &models.User{ID: "k1", Username: "ward-a", TelegramChatID: 7}

	got := n.Messages(models.ComplaintEvent{Type: models.EventCategoryAssigned, Category: "sanitation", KingID: "k1", PreviousKingID: "k1", ActorID: "god"},
		telegram.Recipients{King: king, PreviousKing: king})

	assert.Equal(t, []telegram.Message{
		{ChatID: 100, Text: "ward-a now rules sanitation."},
		{ChatID: 7, Text: "You now rule sanitation."},
	}, got)
}

func TestNotify_JoinsSendErrors(t *testing.T) {
	sender := new(MockSender)
	n := newNotifier(t, sender)
	event := models.ComplaintEvent{Type: models.EventCategoryAssigned, Category: "lighting", KingID: "k1", ActorID: "god"}
	king := &models.User{ID: "k1", Email: "k1@ward.gov", TelegramChatID: 300}

	sender.On("Send", text("k1@ward.gov now rules lighting.")).Return(errors.New("chat not found"))
	sender.On("Send", text("You now rule lighting.")).Return(nil)

	err := n.Notify(context.Background(), event, telegram.Recipients{King: king})

	assert.ErrorContains(t, err, "chat not found")
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestNotify_UnknownEventSendsNothing(t *testing.T) {
	sender := new(MockSender)
	n := newNotifier(t, sender)

	assert.NoError(t, n.Notify(context.Background(), models.ComplaintEvent{Type: "noise"}, telegram.Recipients{}))
	sender.AssertNotCalled(t, "Send", mock.Anything)
}
