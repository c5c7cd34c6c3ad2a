package history

import (
	"context"
	"testing"

	"announce-qa-be/pkg/llm"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	msgs, err := store.Load(ctx, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("fresh conversation must be empty, got %d messages", len(msgs))
	}

	err = store.Append(ctx, "c1",
		llm.Message{Role: "user", Content: "휴학 언제까지야?"},
		llm.Message{Role: "assistant", Content: "3월 말까지입니다."},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs, _ = store.Load(ctx, "c1")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "휴학 언제까지야?" || msgs[1].Role != "assistant" {
		t.Errorf("messages out of order: %+v", msgs)
	}
}

func TestMemoryStoreIsolatesConversations(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, "c1", llm.Message{Role: "user", Content: "질문 A"})
	store.Append(ctx, "c2", llm.Message{Role: "user", Content: "질문 B"})

	msgs, _ := store.Load(ctx, "c1")
	if len(msgs) != 1 || msgs[0].Content != "질문 A" {
		t.Errorf("c1 contaminated: %+v", msgs)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, "c1", llm.Message{Role: "user", Content: "질문"})
	if err := store.Clear(ctx, "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs, _ := store.Load(ctx, "c1")
	if len(msgs) != 0 {
		t.Errorf("expected cleared conversation, got %d messages", len(msgs))
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, "c1", llm.Message{Role: "user", Content: "원본"})

	msgs, _ := store.Load(ctx, "c1")
	msgs[0].Content = "변조"

	again, _ := store.Load(ctx, "c1")
	if again[0].Content != "원본" {
		t.Error("Load must return a defensive copy")
	}
}
