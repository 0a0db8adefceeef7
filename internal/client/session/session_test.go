package session

import (
	"encoding/json"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	originalData := "This is a secret profile"

	encrypted, err := encrypt([]byte(originalData))
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}

	if encrypted == "" {
		t.Fatal("Encrypted string is empty")
	}

	decrypted, err := decrypt(encrypted)
	if err != nil {
		t.Fatalf("Failed to decrypt: %v", err)
	}

	if string(decrypted) != originalData {
		t.Errorf("Expected %q, got %q", originalData, string(decrypted))
	}
}

func TestSessionSerialization(t *testing.T) {
	originalSession := Session{
		ServerURL:       "http://localhost:3567",
		UserID:          "u-123",
		Name:            "Asha",
		Email:           "asha@example.com",
		Role:            "freelancer",
		DisplayCurrency: "USD",
	}

	data, err := json.Marshal(originalSession)
	if err != nil {
		t.Fatalf("Failed to marshal session: %v", err)
	}

	encrypted, err := encrypt(data)
	if err != nil {
		t.Fatalf("Failed to encrypt session: %v", err)
	}

	decryptedData, err := decrypt(encrypted)
	if err != nil {
		t.Fatalf("Failed to decrypt session: %v", err)
	}

	var restoredSession Session
	if err := json.Unmarshal(decryptedData, &restoredSession); err != nil {
		t.Fatalf("Failed to unmarshal restored session: %v", err)
	}

	if restoredSession != originalSession {
		t.Errorf("Expected %+v, got %+v", originalSession, restoredSession)
	}
}
