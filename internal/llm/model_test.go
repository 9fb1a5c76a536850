package llm

import "testing"

func TestSystemBuildsSystemMessage(t *testing.T) {
	m := System("be concise")
	if m.Role != "system" || m.Content != "be concise" {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestUserBuildsUserMessage(t *testing.T) {
	m := User("hello")
	if m.Role != "user" || m.Content != "hello" {
		t.Fatalf("unexpected message: %+v", m)
	}
}
