package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/aretw0/wattle/pkg/adapters/memory"
	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/persistence/middleware"
	"github.com/aretw0/wattle/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func sampleTrace(id string) *graph.Trace {
	started := time.Now().UTC()
	return &graph.Trace{
		ID:        id,
		Graph:     "checkout",
		Status:    graph.StatusFinished,
		StartedAt: started,
		EndedAt:   started.Add(20 * time.Millisecond),
		Steps: []graph.TraceStep{
			{Seq: 1, Node: "charge", Update: map[string]any{"card": "4111-1111"}, At: started},
			{Seq: 2, Node: graph.End, At: started.Add(time.Millisecond)},
		},
		Final: map[string]any{"card": "4111-1111", "total": 42.0},
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	// Setup
	underlying := memory.NewRecorder()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureRec := mw(underlying)

	ctx := context.Background()
	original := sampleTrace("run-encrypted")

	// 1. Save
	if err := secureRec.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Verify the underlying recorder directly (should be an opaque envelope)
	stored, err := underlying.Load(ctx, "run-encrypted")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Graph != "" {
		t.Errorf("Expected graph name to be hidden, found: %q", stored.Graph)
	}
	if len(stored.Steps) != 0 {
		t.Errorf("Expected steps to be hidden, found %d", len(stored.Steps))
	}
	if val, ok := stored.Final["card"]; ok {
		t.Fatalf("Expected card to be hidden, found: %v", val)
	}
	if _, ok := stored.Final["__encrypted__"]; !ok {
		t.Fatal("Expected __encrypted__ field in final state")
	}
	if stored.Status != graph.StatusFinished {
		t.Errorf("Expected status to stay readable, got %s", stored.Status)
	}

	// 3. Load via middleware (should be decrypted)
	loaded, err := secureRec.Load(ctx, "run-encrypted")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Final["card"] != "4111-1111" {
		t.Errorf("Expected '4111-1111', got %v", loaded.Final["card"])
	}
	if len(loaded.Steps) != 2 || loaded.Steps[0].Node != "charge" {
		t.Errorf("Expected decrypted steps back, got %+v", loaded.Steps)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	// Setup
	underlying := memory.NewRecorder()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	// Create middleware with OLD key to save the initial trace
	mwOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	secureOld := mwOld(underlying)

	ctx := context.Background()
	original := sampleTrace("run-rotation")
	original.Final["data"] = "encrypted-with-old-key"

	// 1. Save with OLD key
	if err := secureOld.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Load with NEW key (active) + OLD key (fallback)
	mwNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	secureNew := mwNew(underlying)

	loaded, err := secureNew.Load(ctx, "run-rotation")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Final["data"] != "encrypted-with-old-key" {
		t.Error("Decryption with fallback key failed")
	}

	// 3. Save again (now sealed with the NEW key)
	loaded.Final["data"] = "encrypted-with-new-key"
	if err := secureNew.Save(ctx, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	// 4. Verify we CANNOT load with just the OLD key anymore
	if _, err := secureOld.Load(ctx, "run-rotation"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainTrace(t *testing.T) {
	underlying := memory.NewRecorder()
	ctx := context.Background()

	// A trace written before encryption was enabled.
	if err := underlying.Save(ctx, sampleTrace("run-plain")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := mw(underlying).Load(ctx, "run-plain"); err == nil {
		t.Error("Expected failure when loading a plaintext trace through encryption middleware")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunRecorderContract(t, mw(memory.NewRecorder()))
}
