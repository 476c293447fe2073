package repository

import (
	"SourceHub/entity"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockDB(mt *mtest.T) *MongoDB {
	return &MongoDB{
		client:   mt.Client,
		database: "sourcehub",
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func storedConversation(id primitive.ObjectID, status entity.ConversationStatus, contents ...string) bson.D {
	at := primitive.NewDateTimeFromTime(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	messages := bson.A{}
	for _, content := range contents {
		messages = append(messages, bson.D{{"sender", "visitor"}, {"content", content}, {"timestamp", at}})
	}
	return bson.D{
		{"_id", id},
		{"visitor_id", "USER1"},
		{"admin_id", "A1"},
		{"messages", messages},
		{"status", status},
		{"last_message_at", at},
		{"created_at", at},
		{"updated_at", at},
	}
}

func lookupString(t *testing.T, cmd bson.Raw, path ...string) string {
	t.Helper()
	value, err := cmd.LookupErr(path...)
	if err != nil {
		t.Fatalf("missing %v in %s", path, cmd)
	}
	s, ok := value.StringValueOK()
	if !ok {
		t.Fatalf("%v is %s, want string", path, value.Type)
	}
	return s
}

func stageCount(t *testing.T, cmd bson.Raw) int {
	t.Helper()
	stages, err := cmd.Lookup("update").Array().Values()
	if err != nil {
		t.Fatal(err)
	}
	return len(stages)
}

func TestAppendMessageStoresContentLiterally(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	for _, content := range []string{"$visitor_id", "$$ROOT", "$", "$messages.0", "plain text"} {
		mt.Run(content, func(mt *mtest.T) {
			oid := primitive.NewObjectID()
			mt.AddMockResponses(mtest.CreateSuccessResponse(
				bson.E{Key: "value", Value: storedConversation(oid, entity.StatusOpen, "hi", content)},
			))

			msg := entity.Message{Sender: entity.SenderVisitor, Content: content}
			conv, err := mockDB(mt).AppendMessage(context.Background(), oid.Hex(), msg, false)
			if err != nil {
				mt.Fatal(err)
			}
			if got := conv.LastMessage().Content; got != content {
				mt.Errorf("returned content = %q, want %q", got, content)
			}

			evt := mt.GetStartedEvent()
			if evt == nil || evt.CommandName != "findAndModify" {
				mt.Fatalf("command = %+v, want findAndModify", evt)
			}
			pushed := []string{"update", "0", "$set", "messages", "$concatArrays", "1", "0"}
			if got := lookupString(mt.T, evt.Command, append(pushed, "content", "$literal")...); got != content {
				mt.Errorf("content sent as %q, want literal %q", got, content)
			}
			if got := lookupString(mt.T, evt.Command, append(pushed, "sender", "$literal")...); got != "visitor" {
				mt.Errorf("sender sent as %q", got)
			}
			if got := lookupString(mt.T, evt.Command, append(pushed, "timestamp")...); got != "$$NOW" {
				mt.Errorf("timestamp = %q, want $$NOW", got)
			}
			if got := lookupString(mt.T, evt.Command, "update", "0", "$set", "last_message_at"); got != "$$NOW" {
				mt.Errorf("last_message_at = %q, want $$NOW", got)
			}
			if n := stageCount(mt.T, evt.Command); n != 1 {
				mt.Errorf("stages = %d, want 1 without reopen", n)
			}
		})
	}
}

func TestAppendMessageReopen(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("admin reply reopens", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: storedConversation(oid, entity.StatusOpen, "hi", "back")},
		))

		msg := entity.Message{Sender: entity.SenderAdmin, Content: "back"}
		if _, err := mockDB(mt).AppendMessage(context.Background(), oid.Hex(), msg, true); err != nil {
			mt.Fatal(err)
		}

		evt := mt.GetStartedEvent()
		if n := stageCount(mt.T, evt.Command); n != 3 {
			mt.Fatalf("stages = %d, want 3", n)
		}
		if got := lookupString(mt.T, evt.Command, "update", "1", "$set", "status", "$literal"); got != "open" {
			mt.Errorf("status = %q, want open", got)
		}
		if got := lookupString(mt.T, evt.Command, "update", "2", "$unset"); got != "closed_at" {
			mt.Errorf("$unset = %q, want closed_at", got)
		}
	})

	mt.Run("blank content rejected", func(mt *mtest.T) {
		msg := entity.Message{Sender: entity.SenderAdmin, Content: "  "}
		_, err := mockDB(mt).AppendMessage(context.Background(), primitive.NewObjectID().Hex(), msg, true)
		if !errors.Is(err, entity.ErrInvalidInput) {
			mt.Errorf("err = %v, want ErrInvalidInput", err)
		}
		if evt := mt.GetStartedEvent(); evt != nil {
			mt.Errorf("unexpected command %s", evt.CommandName)
		}
	})

	mt.Run("missing conversation", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		msg := entity.Message{Sender: entity.SenderVisitor, Content: "hello"}
		_, err := mockDB(mt).AppendMessage(context.Background(), primitive.NewObjectID().Hex(), msg, false)
		if !errors.Is(err, entity.ErrNotFound) {
			mt.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		msg := entity.Message{Sender: entity.SenderVisitor, Content: "hello"}
		_, err := mockDB(mt).AppendMessage(context.Background(), "not-an-id", msg, false)
		if !errors.Is(err, entity.ErrNotFound) {
			mt.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestSetConversationStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("close uses database clock", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: storedConversation(oid, entity.StatusClosed, "hi")},
		))

		conv, err := mockDB(mt).SetConversationStatus(context.Background(), oid.Hex(), entity.StatusClosed)
		if err != nil {
			mt.Fatal(err)
		}
		if !conv.IsClosed() {
			mt.Errorf("status = %q", conv.Status)
		}

		evt := mt.GetStartedEvent()
		if got := lookupString(mt.T, evt.Command, "update", "0", "$set", "closed_at"); got != "$$NOW" {
			mt.Errorf("closed_at = %q, want $$NOW", got)
		}
		if got := lookupString(mt.T, evt.Command, "update", "0", "$set", "updated_at"); got != "$$NOW" {
			mt.Errorf("updated_at = %q, want $$NOW", got)
		}
	})

	mt.Run("open clears closed_at", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: storedConversation(oid, entity.StatusOpen, "hi")},
		))

		if _, err := mockDB(mt).SetConversationStatus(context.Background(), oid.Hex(), entity.StatusOpen); err != nil {
			mt.Fatal(err)
		}
		evt := mt.GetStartedEvent()
		if got := lookupString(mt.T, evt.Command, "update", "1", "$unset"); got != "closed_at" {
			mt.Errorf("$unset = %q, want closed_at", got)
		}
	})

	mt.Run("unknown status", func(mt *mtest.T) {
		_, err := mockDB(mt).SetConversationStatus(context.Background(), primitive.NewObjectID().Hex(), "archived")
		if !errors.Is(err, entity.ErrInvalidInput) {
			mt.Errorf("err = %v, want ErrInvalidInput", err)
		}
		if evt := mt.GetStartedEvent(); evt != nil {
			mt.Errorf("unexpected command %s", evt.CommandName)
		}
	})
}

func TestCreateConversation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	adminID := primitive.NewObjectID().Hex()

	mt.Run("pipeline upsert", func(mt *mtest.T) {
		stored := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "sourcehub.admins", mtest.FirstBatch, bson.D{{"n", 1}}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: storedConversation(stored, entity.StatusOpen, "$$NOW")}),
		)

		first, _ := entity.NewMessage(entity.SenderVisitor, "$$NOW", time.Now())
		conv := entity.NewConversation("USER1", adminID, first)
		if err := mockDB(mt).CreateConversation(context.Background(), conv); err != nil {
			mt.Fatal(err)
		}
		if conv.ID != stored || conv.Messages[0].Content != "$$NOW" {
			mt.Errorf("conversation not refreshed from store: %+v", conv)
		}

		if evt := mt.GetStartedEvent(); evt.CommandName != "aggregate" {
			mt.Fatalf("first command = %s, want admin count", evt.CommandName)
		}
		evt := mt.GetStartedEvent()
		if evt.CommandName != "findAndModify" {
			mt.Fatalf("second command = %s, want findAndModify", evt.CommandName)
		}
		if upsert, ok := evt.Command.Lookup("upsert").BooleanOK(); !ok || !upsert {
			mt.Error("insert is not an upsert")
		}
		if got := lookupString(mt.T, evt.Command, "update", "0", "$set", "messages", "0", "content", "$literal"); got != "$$NOW" {
			mt.Errorf("first message sent as %q", got)
		}
		for _, field := range []string{"last_message_at", "created_at", "updated_at"} {
			if got := lookupString(mt.T, evt.Command, "update", "0", "$set", field); got != "$$NOW" {
				mt.Errorf("%s = %q, want $$NOW", field, got)
			}
		}
		if got := lookupString(mt.T, evt.Command, "update", "0", "$set", "messages", "0", "timestamp"); got != "$$NOW" {
			mt.Errorf("first message timestamp = %q, want $$NOW", got)
		}
	})

	mt.Run("unknown admin", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "sourcehub.admins", mtest.FirstBatch))

		first, _ := entity.NewMessage(entity.SenderVisitor, "hi", time.Now())
		err := mockDB(mt).CreateConversation(context.Background(), entity.NewConversation("USER1", adminID, first))
		if !errors.Is(err, entity.ErrNotFound) {
			mt.Fatalf("err = %v, want ErrNotFound", err)
		}
		mt.GetStartedEvent()
		if evt := mt.GetStartedEvent(); evt != nil {
			mt.Errorf("unexpected write %s", evt.CommandName)
		}
	})
}

func TestListConversationsStatusFilter(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("open only", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "sourcehub.chats", mtest.FirstBatch, bson.D{{"n", 3}}),
			mtest.CreateCursorResponse(0, "sourcehub.chats", mtest.FirstBatch,
				storedConversation(primitive.NewObjectID(), entity.StatusOpen, "hi")),
		)

		chats, total, err := mockDB(mt).ListConversationsByAdmin(context.Background(), "A1", entity.StatusOpen, 2, 1)
		if err != nil {
			mt.Fatal(err)
		}
		if total != 3 || len(chats) != 1 {
			mt.Fatalf("total = %d, chats = %d", total, len(chats))
		}

		count := mt.GetStartedEvent()
		if got := lookupString(mt.T, count.Command, "pipeline", "0", "$match", "status"); got != "open" {
			mt.Errorf("count status = %q", got)
		}
		find := mt.GetStartedEvent()
		if got := lookupString(mt.T, find.Command, "filter", "admin_id"); got != "A1" {
			mt.Errorf("admin_id = %q", got)
		}
		if got := lookupString(mt.T, find.Command, "filter", "status"); got != "open" {
			mt.Errorf("find status = %q", got)
		}
		if skip, _ := find.Command.Lookup("skip").AsInt64OK(); skip != 1 {
			mt.Errorf("skip = %d, want 1", skip)
		}
		if order, _ := find.Command.Lookup("sort", "updated_at").AsInt64OK(); order != -1 {
			mt.Errorf("sort updated_at = %d, want -1", order)
		}
	})

	mt.Run("all statuses", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "sourcehub.chats", mtest.FirstBatch, bson.D{{"n", 0}}),
			mtest.CreateCursorResponse(0, "sourcehub.chats", mtest.FirstBatch),
		)

		if _, _, err := mockDB(mt).ListConversations(context.Background(), "", 1, 30); err != nil {
			mt.Fatal(err)
		}
		mt.GetStartedEvent()
		find := mt.GetStartedEvent()
		if _, err := find.Command.LookupErr("filter", "status"); err == nil {
			mt.Error("status filter sent for all statuses")
		}
	})
}
