package models

import (
	"github.com/Sana-Rashid-135/coach/internal/crypto"
	"gorm.io/gorm"
)

// Message direction constants
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

var encryptor *crypto.BodyEncryptor

// InitEncryption initializes the message-body encryptor for the models package.
// Must be called before any database operations involving Message. Passing an
// empty key leaves bodies in plaintext.
func InitEncryption(encryptionKey string) error {
	if encryptionKey == "" {
		encryptor = nil
		return nil
	}
	var err error
	encryptor, err = crypto.NewBodyEncryptor(encryptionKey)
	return err
}

// Message is an append-only audit record of one WhatsApp message in either
// direction. The body is encrypted at rest when an encryption key is configured.
type Message struct {
	gorm.Model
	UserID      uint   `gorm:"not null;index"`
	User        User   `gorm:"constraint:OnDelete:CASCADE;"`
	Direction   string `gorm:"not null;index"` // enum: 'inbound' or 'outbound'
	Body        string `gorm:"type:text"`      // stored encrypted when a key is set
	ProviderSID string `gorm:"column:provider_sid;not null;default:''"`
}

// BeforeSave encrypts the body before saving to database.
// Always encrypts non-empty bodies (GCM produces different output each time
// due to random nonce).
func (m *Message) BeforeSave(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}

	if m.Body != "" {
		encrypted, err := encryptor.Encrypt(m.Body)
		if err != nil {
			return err
		}
		m.Body = encrypted
	}

	return nil
}

// AfterFind decrypts the body after loading from database
func (m *Message) AfterFind(tx *gorm.DB) error {
	if encryptor == nil {
		return nil
	}

	if m.Body != "" {
		decrypted, err := encryptor.Decrypt(m.Body)
		if err != nil {
			return err
		}
		m.Body = decrypted
	}

	return nil
}
