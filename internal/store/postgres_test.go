package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS documents`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutDocuments_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`ON CONFLICT \(kind, id\) DO UPDATE`).
		WithArgs("clients", "c1", []byte(`{"id":"c1"}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`ON CONFLICT \(kind, id\) DO UPDATE`).
		WithArgs("clients", "c2", []byte(`{"id":"c2"}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := s.PutDocuments(context.Background(), KindClients, []Document{
		{ID: "c1", Data: []byte(`{"id":"c1"}`)},
		{ID: "c2", Data: []byte(`{"id":"c2"}`)},
	}, Upsert)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutDocuments_AppendOnlySkipsDuplicates(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`ON CONFLICT \(kind, id\) DO NOTHING`).
		WithArgs("transitions", "L1|a|b|t", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	n, err := s.PutDocuments(context.Background(), KindTransitions, []Document{
		{ID: "L1|a|b|t", Data: []byte(`{}`)},
	}, AppendOnly)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutDocuments_ExecError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.PutDocuments(context.Background(), KindClients, []Document{{ID: "c1", Data: []byte(`{}`)}}, Upsert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: put clients c1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutDocuments_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	n, err := s.PutDocuments(context.Background(), KindClients, nil, Upsert)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Documents(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM documents WHERE kind = \$1 ORDER BY seq`).
		WithArgs("clients").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"id":"c1","name":"Acme"}`)).
			AddRow([]byte(`{"id":"c2","name":"Globex"}`)))

	repo := NewRepository(s)
	clients, err := load[clientDoc](context.Background(), repo.Backend(), KindClients)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Globex", clients[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type clientDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestPostgresStore_GetList_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM keyed_lists WHERE key = \$1`).
		WithArgs("planned_engagements").
		WillReturnError(pgx.ErrNoRows)

	data, err := s.GetList(context.Background(), "planned_engagements")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutList(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO keyed_lists`).
		WithArgs("capacity:2025-04", []byte(`[]`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewKeyedList[clientDoc](s, "capacity:2025-04").Save(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
