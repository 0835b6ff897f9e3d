package unique

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recline-db/recline/internal/doc"
	"github.com/recline-db/recline/internal/lifecycle"
	"github.com/recline-db/recline/internal/sqlstore"
)

func newTestModel(t *testing.T, entity *lifecycle.Entity) lifecycle.Model {
	t.Helper()
	s, err := sqlstore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return lifecycle.Model{Store: s, Entity: entity}
}

func TestIsUnique(t *testing.T) {
	m := newTestModel(t, lifecycle.NewEntity("users"))
	ctx := context.Background()

	_, err := lifecycle.Create(ctx, m, doc.Record{
		doc.IDField: doc.String("u1"),
		"email":     doc.String("alice@example.com"),
	})
	require.NoError(t, err)

	// A different record with the same email is not unique.
	ok, err := IsUnique(ctx, m, doc.Record{
		doc.IDField: doc.String("u2"),
		"email":     doc.String("alice@example.com"),
	}, "email")
	require.NoError(t, err)
	assert.False(t, ok)

	// The record itself is excluded: it stays unique against its own row.
	ok, err = IsUnique(ctx, m, doc.Record{
		doc.IDField: doc.String("u1"),
		"email":     doc.String("alice@example.com"),
	}, "email")
	require.NoError(t, err)
	assert.True(t, ok)

	// A fresh email is unique.
	ok, err = IsUnique(ctx, m, doc.Record{
		doc.IDField: doc.String("u2"),
		"email":     doc.String("bob@example.com"),
	}, "email")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsUnique_CompoundFields(t *testing.T) {
	m := newTestModel(t, lifecycle.NewEntity("users"))
	ctx := context.Background()

	_, err := lifecycle.Create(ctx, m, doc.Record{
		doc.IDField:  doc.String("u1"),
		"first_name": doc.String("alice"),
		"last_name":  doc.String("smith"),
	})
	require.NoError(t, err)

	ok, err := IsUnique(ctx, m, doc.Record{
		doc.IDField:  doc.String("u2"),
		"first_name": doc.String("alice"),
		"last_name":  doc.String("jones"),
	}, "first_name", "last_name")
	require.NoError(t, err)
	assert.True(t, ok, "only the full combination must be unique")

	ok, err = IsUnique(ctx, m, doc.Record{
		doc.IDField:  doc.String("u2"),
		"first_name": doc.String("alice"),
		"last_name":  doc.String("smith"),
	}, "first_name", "last_name")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidator(t *testing.T) {
	entity := lifecycle.NewEntity("users").WithValidator(Validator("email"))
	m := newTestModel(t, entity)
	ctx := context.Background()

	_, err := lifecycle.Create(ctx, m, doc.Record{"email": doc.String("alice@example.com")})
	require.NoError(t, err)

	_, err = lifecycle.Create(ctx, m, doc.Record{"email": doc.String("alice@example.com")})
	require.Error(t, err)

	errs, ok := lifecycle.ValidationErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"has already been taken"}, errs["email"])
}
