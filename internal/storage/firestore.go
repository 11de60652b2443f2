package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/homeshine/portal-front/internal/crypto"
	"github.com/homeshine/portal-front/internal/debuglog"
	"github.com/homeshine/portal-front/internal/log"
	"github.com/homeshine/portal-front/internal/session"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStorage persists the session record and debug trail in Google
// Cloud Firestore.
//
// The session lives in a single well-known document and its access token is
// encrypted at rest. The debug trail is a separate collection of append-only
// documents; it shares nothing with the session document, so a concurrent
// trail write can never corrupt session state.
type FirestoreStorage struct {
	client          *firestore.Client
	collection      string
	debugCollection string
	encryptor       crypto.Encryptor
}

const sessionDocID = "current"

// Ensure FirestoreStorage implements Storage interface
var _ Storage = (*FirestoreStorage)(nil)

// sessionDoc is the Firestore shape of the session record
type sessionDoc struct {
	AccessToken   string `firestore:"access_token"` // encrypted
	Role          string `firestore:"role"`
	Email         string `firestore:"email"`
	UserName      string `firestore:"user_name"`
	AccountStatus string `firestore:"account_status"`
	Provider      string `firestore:"provider"`
	ProviderID    string `firestore:"provider_id"`
}

// debugEntryDoc is the Firestore shape of one debug trail entry.
// Payload is stored as a JSON string since its structure is opaque.
type debugEntryDoc struct {
	Time    string `firestore:"time"`
	Message string `firestore:"message"`
	Payload string `firestore:"payload,omitempty"`
}

// NewFirestoreStorage creates a new Firestore storage instance
func NewFirestoreStorage(ctx context.Context, projectID, database, collection string, encryptor crypto.Encryptor) (*FirestoreStorage, error) {
	if encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	var client *firestore.Client
	var err error

	// Firestore client with custom database
	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreStorage{
		client:          client,
		collection:      collection,
		debugCollection: collection + "_debug_logs",
		encryptor:       encryptor,
	}, nil
}

// SaveSession overwrites the session document, encrypting the token first.
func (s *FirestoreStorage) SaveSession(ctx context.Context, rec session.Record) error {
	encrypted, err := s.encryptor.Encrypt(rec.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypting access token: %w", err)
	}

	doc := sessionDoc{
		AccessToken:   encrypted,
		Role:          rec.Role,
		Email:         rec.Email,
		UserName:      rec.UserName,
		AccountStatus: rec.AccountStatus,
		Provider:      rec.Provider,
		ProviderID:    rec.ProviderID,
	}

	if _, err := s.client.Collection(s.collection).Doc(sessionDocID).Set(ctx, doc); err != nil {
		return fmt.Errorf("writing session document: %w", err)
	}
	return nil
}

// LoadSession reads the session document, returning nil when none exists.
func (s *FirestoreStorage) LoadSession(ctx context.Context) (*session.Record, error) {
	snap, err := s.client.Collection(s.collection).Doc(sessionDocID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session document: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("unmarshaling session document: %w", err)
	}

	token, err := s.encryptor.Decrypt(doc.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypting access token: %w", err)
	}

	return &session.Record{
		AccessToken:   token,
		Role:          doc.Role,
		Email:         doc.Email,
		UserName:      doc.UserName,
		AccountStatus: doc.AccountStatus,
		Provider:      doc.Provider,
		ProviderID:    doc.ProviderID,
	}, nil
}

// DeleteSession removes the session document.
func (s *FirestoreStorage) DeleteSession(ctx context.Context) error {
	if _, err := s.client.Collection(s.collection).Doc(sessionDocID).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("deleting session document: %w", err)
	}
	return nil
}

// AppendEntry adds one debug trail document.
func (s *FirestoreStorage) AppendEntry(ctx context.Context, entry debuglog.Entry) error {
	doc := debugEntryDoc{
		Time:    entry.Time,
		Message: entry.Message,
	}
	if entry.Payload != nil {
		payload, err := json.Marshal(entry.Payload)
		if err != nil {
			// Keep the entry, drop only the payload
			log.LogWarnWithFields("storage", "Unmarshalable debug payload dropped", map[string]any{
				"message": entry.Message,
			})
		} else {
			doc.Payload = string(payload)
		}
	}

	if _, _, err := s.client.Collection(s.debugCollection).Add(ctx, doc); err != nil {
		return fmt.Errorf("appending debug entry: %w", err)
	}
	return nil
}

// ListEntries returns the debug trail ordered by timestamp.
func (s *FirestoreStorage) ListEntries(ctx context.Context) ([]debuglog.Entry, error) {
	iter := s.client.Collection(s.debugCollection).OrderBy("time", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var entries []debuglog.Entry
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating debug entries: %w", err)
		}

		var doc debugEntryDoc
		if err := snap.DataTo(&doc); err != nil {
			log.LogErrorWithFields("storage", "Skipping unreadable debug entry", map[string]any{
				"doc":   snap.Ref.ID,
				"error": err.Error(),
			})
			continue
		}

		entry := debuglog.Entry{Time: doc.Time, Message: doc.Message}
		if doc.Payload != "" {
			var payload any
			if err := json.Unmarshal([]byte(doc.Payload), &payload); err == nil {
				entry.Payload = payload
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ClearEntries deletes every debug trail document.
func (s *FirestoreStorage) ClearEntries(ctx context.Context) error {
	iter := s.client.Collection(s.debugCollection).Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	deleted := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("iterating debug entries: %w", err)
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			return fmt.Errorf("deleting debug entry: %w", err)
		}
		deleted++
	}
	bw.End()

	log.LogInfoWithFields("storage", "Cleared debug trail", map[string]any{
		"deleted": deleted,
	})
	return nil
}

// Close releases the Firestore client.
func (s *FirestoreStorage) Close() error {
	return s.client.Close()
}
