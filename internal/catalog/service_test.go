package catalog

import (
	"context"
	"testing"

	"timestudy/adapters/excel"
	"timestudy/internal/errors"
	"timestudy/internal/testkit"
	"timestudy/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCodec returns fixed rows for any non-empty upload
type stubCodec struct {
	rows [][]ports.Cell
}

func (c *stubCodec) Parse(data []byte) ([][]ports.Cell, error) {
	return c.rows, nil
}

func (c *stubCodec) Serialize(sheets ...ports.Sheet) ([]byte, error) {
	return nil, nil
}

var upload = []byte("workbook")

func newService(t *testing.T, rows [][]ports.Cell) (*Service, *testkit.Store, *testkit.Fixture) {
	t.Helper()
	store := testkit.NewStore()
	fixture, err := store.Seed(context.Background(), "Acme", 3)
	require.NoError(t, err)
	return NewService(store.Processes(), store.Operations(), &stubCodec{rows: rows}), store, fixture
}

func TestImportCreatesProcessWithOperations(t *testing.T) {
	rows := importTemplate(
		[]ports.Cell{"OP001", "Tighten bolt", 12.5, "wrench", "visual"},
		[]ports.Cell{"op002", "Apply label", nil, nil, nil},
	)
	svc, _, f := newService(t, rows)
	ctx := context.Background()
	admin := f.AdminIdentity()

	result, err := svc.Import(ctx, admin, upload, "")
	require.NoError(t, err)
	assert.Equal(t, "Final Assembly", result.ProcessName)
	assert.Equal(t, 2, result.OperationCount)

	detail, err := svc.GetProcess(ctx, admin, result.ProcessID)
	require.NoError(t, err)
	require.Len(t, detail.Operations, 2)
	assert.Equal(t, 0, detail.Operations[0].SequenceNumber)
	assert.Equal(t, 1, detail.Operations[1].SequenceNumber)
	assert.Equal(t, 2, detail.OperationCount)

	exists, err := svc.NameExists(ctx, admin, " Final Assembly ")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestImportFormNameWins(t *testing.T) {
	svc, _, f := newService(t, importTemplate([]ports.Cell{"OP1", "a"}))

	result, err := svc.Import(context.Background(), f.AdminIdentity(), upload, "  Paint Shop ")
	require.NoError(t, err)
	assert.Equal(t, "Paint Shop", result.ProcessName)
}

func TestImportRejections(t *testing.T) {
	tests := []struct {
		name        string
		rows        [][]ports.Cell
		processName string
	}{
		{"empty sheet", nil, "X"},
		{"no name anywhere", [][]ports.Cell{{"Process Name"}, {"Operation ID"}, {"OP1", "a"}}, ""},
		{"duplicate name", importTemplate([]ports.Cell{"OP1", "a"}), "Acme Line"},
		{"no header", [][]ports.Cell{{"Process Name", "New"}, {"OP1", "a"}}, ""},
		{"zero valid rows", importTemplate([]ports.Cell{"Step", "a"}), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, f := newService(t, tt.rows)
			before := store.ProcessCount()

			_, err := svc.Import(context.Background(), f.AdminIdentity(), upload, tt.processName)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err), "unexpected error %v", err)
			assert.Equal(t, before, store.ProcessCount(), "rejected imports leave no process behind")
		})
	}
}

func TestImportRequiresFile(t *testing.T) {
	svc, _, f := newService(t, nil)
	_, err := svc.Import(context.Background(), f.AdminIdentity(), nil, "X")
	assert.True(t, errors.IsValidation(err))
}

func TestReplaceSwapsCatalog(t *testing.T) {
	rows := [][]ports.Cell{
		{"Operation ID", "Operation Description", "Standard time (sec)"},
		{"OP-A", "First", 5.0},
		{"OP-B", "Second", nil},
	}
	svc, _, f := newService(t, rows)
	ctx := context.Background()
	admin := f.AdminIdentity()

	n, err := svc.Replace(ctx, admin, f.Process.ID, upload)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ops, err := svc.ListOperations(ctx, admin, f.Process.ID)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "OP-A", ops[0].Code)
	assert.Equal(t, "OP-B", ops[1].Code)
}

func TestReplaceValidatesBeforeDeleting(t *testing.T) {
	svc, _, f := newService(t, [][]ports.Cell{{"Operation ID"}, {"nothing"}})
	ctx := context.Background()
	admin := f.AdminIdentity()

	_, err := svc.Replace(ctx, admin, f.Process.ID, upload)
	assert.True(t, errors.IsValidation(err))

	ops, err := svc.ListOperations(ctx, admin, f.Process.ID)
	require.NoError(t, err)
	assert.Len(t, ops, 3, "catalog is untouched")

	_, err = svc.Replace(ctx, admin, uuid.New(), upload)
	assert.True(t, errors.IsNotFound(err))
}

func TestTenantIsolation(t *testing.T) {
	svc, store, f := newService(t, nil)
	ctx := context.Background()
	other, err := store.Seed(ctx, "Globex", 1)
	require.NoError(t, err)

	_, err = svc.GetProcess(ctx, f.AdminIdentity(), other.Process.ID)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(svc.DeleteProcess(ctx, f.AdminIdentity(), other.Process.ID)))
	_, err = svc.ListOperations(ctx, f.AdminIdentity(), other.Process.ID)
	assert.True(t, errors.IsNotFound(err))

	list, err := svc.ListProcesses(ctx, f.AdminIdentity())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.Process.ID, list[0].ID)
}

func TestOperationCRUDKeepsSequenceDense(t *testing.T) {
	svc, _, f := newService(t, nil)
	ctx := context.Background()
	admin := f.AdminIdentity()
	pid := f.Process.ID

	appended, err := svc.CreateOperation(ctx, admin, pid, OperationInput{Code: "OP9", Description: "Pack"})
	require.NoError(t, err)
	assert.Equal(t, 3, appended.SequenceNumber)

	first := 0
	inserted, err := svc.CreateOperation(ctx, admin, pid, OperationInput{Code: "OP0", Description: "Kit", SequenceNumber: &first})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted.SequenceNumber)

	_, err = svc.CreateOperation(ctx, admin, pid, OperationInput{Code: "OP9", Description: "again"})
	assert.True(t, errors.IsConflict(err))
	_, err = svc.CreateOperation(ctx, admin, pid, OperationInput{Code: "X1", Description: "bad prefix"})
	assert.True(t, errors.IsValidation(err))
	_, err = svc.CreateOperation(ctx, admin, pid, OperationInput{Code: "OP7"})
	assert.True(t, errors.IsValidation(err))

	// Delete the operation at sequence 2 of [OP0 OP1 OP2 OP3 OP9].
	require.NoError(t, svc.DeleteOperation(ctx, admin, pid, f.Operations[1].ID))

	ops, err := svc.ListOperations(ctx, admin, pid)
	require.NoError(t, err)
	codes := make([]string, len(ops))
	for i, op := range ops {
		codes[i] = op.Code
		assert.Equal(t, i, op.SequenceNumber)
	}
	assert.Equal(t, []string{"OP0", "OP1", "OP3", "OP9"}, codes)
}

func TestCreateOperationPastEndAppends(t *testing.T) {
	svc, _, f := newService(t, nil)
	ctx := context.Background()

	far := 40
	op, err := svc.CreateOperation(ctx, f.AdminIdentity(), f.Process.ID, OperationInput{Code: "OP9", Description: "Pack", SequenceNumber: &far})
	require.NoError(t, err)
	assert.Equal(t, len(f.Operations), op.SequenceNumber)

	negative := -3
	op, err = svc.CreateOperation(ctx, f.AdminIdentity(), f.Process.ID, OperationInput{Code: "OP10", Description: "Ship", SequenceNumber: &negative})
	require.NoError(t, err)
	assert.Equal(t, len(f.Operations)+1, op.SequenceNumber)
}

func TestUpdateOperation(t *testing.T) {
	svc, _, f := newService(t, nil)
	ctx := context.Background()
	admin := f.AdminIdentity()
	pid := f.Process.ID
	std := 8.0

	updated, err := svc.UpdateOperation(ctx, admin, pid, f.Operations[0].ID, OperationInput{
		Code: "OP1", Description: " Renamed ", StandardTimeSeconds: &std, ToolsRequired: strPtr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Description)
	assert.Equal(t, 0, updated.SequenceNumber)
	assert.Nil(t, updated.ToolsRequired)

	_, err = svc.UpdateOperation(ctx, admin, pid, f.Operations[0].ID, OperationInput{Code: "OP2", Description: "clash"})
	assert.True(t, errors.IsConflict(err))

	_, err = svc.UpdateOperation(ctx, admin, pid, uuid.New(), OperationInput{Code: "OP1", Description: "x"})
	assert.True(t, errors.IsNotFound(err))
}

func TestImportThroughExcelCodec(t *testing.T) {
	store := testkit.NewStore()
	ctx := context.Background()
	f, err := store.Seed(ctx, "Acme", 1)
	require.NoError(t, err)

	codec := excel.NewCodec()
	data, err := codec.Serialize(ports.Sheet{
		Name:    "Template",
		Columns: []string{"Process Name", "Welding Cell"},
		Rows: [][]ports.Cell{
			{nil},
			{"Operation ID", "Operation Description", "Standard time (sec)", "Tools Required", "Quality Check"},
			{"OP001", "Tighten bolt", 12.5, "wrench", "visual"},
			{"op002", "Apply label", nil, nil, nil},
		},
	})
	require.NoError(t, err)

	svc := NewService(store.Processes(), store.Operations(), codec)

	name, err := svc.ExtractName(data)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Welding Cell", *name)

	result, err := svc.Import(ctx, f.AdminIdentity(), data, "")
	require.NoError(t, err)
	assert.Equal(t, "Welding Cell", result.ProcessName)
	assert.Equal(t, 2, result.OperationCount)

	ops, err := svc.ListOperations(ctx, f.AdminIdentity(), result.ProcessID)
	require.NoError(t, err)
	require.NotNil(t, ops[0].StandardTimeSeconds)
	assert.Equal(t, 12.5, *ops[0].StandardTimeSeconds)
	assert.Nil(t, ops[1].StandardTimeSeconds)
}

func strPtr(s string) *string { return &s }
