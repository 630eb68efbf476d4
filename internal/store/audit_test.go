// ABOUTME: Tests for audit log store operations
// ABOUTME: Covers Append and List with filtering for the audit_log table

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditStore_Append(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		SessionID: "sess-1",
		Actor:     "alice",
		Action:    AuditUpdate,
		Resource:  "orders",
		TargetID:  "42",
		Outcome:   AuditOK,
		Message:   "updated",
	}

	require.NoError(t, store.AppendAuditLog(ctx, entry))

	// Should have generated ID and timestamp
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestAuditStore_List_NoFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, action := range []AuditAction{AuditCreate, AuditUpdate, AuditDelete} {
		entry := &AuditEntry{
			SessionID: "sess-1",
			Actor:     "alice",
			Action:    action,
			Resource:  "products",
			Outcome:   AuditOK,
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.AppendAuditLog(ctx, entry))
	}

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// Should be newest first
	assert.Equal(t, AuditDelete, entries[0].Action)
}

func TestAuditStore_List_ByActorAndResource(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rows := []AuditEntry{
		{Actor: "alice", Action: AuditCreate, Resource: "products", Outcome: AuditOK},
		{Actor: "alice", Action: AuditDelete, Resource: "orders", TargetID: "3", Outcome: AuditRejected, Message: "Order not found"},
		{Actor: "bob", Action: AuditUpdate, Resource: "orders", TargetID: "4", Outcome: AuditFailed},
	}
	for i := range rows {
		rows[i].SessionID = "s"
		require.NoError(t, store.AppendAuditLog(ctx, &rows[i]))
	}

	alice := "alice"
	entries, err := store.ListAuditLog(ctx, AuditFilter{Actor: &alice})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	orders := "orders"
	entries, err = store.ListAuditLog(ctx, AuditFilter{Actor: &alice, Resource: &orders})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditRejected, entries[0].Outcome)
	assert.Equal(t, "Order not found", entries[0].Message)
}

func TestAuditStore_List_Limit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendAuditLog(ctx, &AuditEntry{
			SessionID: "s", Actor: "alice", Action: AuditCreate, Resource: "faq", Outcome: AuditOK,
		}))
	}

	entries, err := store.ListAuditLog(ctx, AuditFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
