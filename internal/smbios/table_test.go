package smbios_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhdewitt/dmiscan/internal/smbios"
	"github.com/nhdewitt/dmiscan/internal/smbios/smbiostest"
)

func newTable(t *testing.T, tb *smbiostest.Table) *smbios.Table {
	t.Helper()

	tbl, err := smbios.NewTable(tb.EntryPoint(2, 8, 0), tb.Bytes(), zerolog.Nop())
	require.NoError(t, err)
	return tbl
}

func TestWalkSkipsStringlessRecord(t *testing.T) {
	tb := (&smbiostest.Table{}).
		Add(smbios.TypeSystemInformation, 0x0001, []byte{0, 0, 0, 0}).
		Add(smbios.TypeProcessor, 0x0002, []byte{1, 0x03}, "X")

	recs, err := newTable(t, tb).Find(smbios.TypeProcessor)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, uint16(0x0002), r.Handle)
	assert.Equal(t, uint8(6), r.Length)
	assert.Equal(t, 10, r.Offset)

	s, err := r.String(0x04)
	require.NoError(t, err)
	assert.Equal(t, "X", s)

	b, err := r.Byte(0x05)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x03), b)
}

func TestRecordFields(t *testing.T) {
	formatted := make([]byte, 16)
	smbios.PutLE(formatted, 0, uint16(0xBEEF))
	smbios.PutLE(formatted, 2, uint32(0x0012A3F0))
	smbios.PutLE(formatted, 6, uint64(0x0102030405060708))
	formatted[14] = 2

	tb := (&smbiostest.Table{}).Add(0x80, 0x1234, formatted, "one", "two")
	r, ok, err := newTable(t, tb).First(0x80)
	require.NoError(t, err)
	require.True(t, ok)

	w, err := r.Word(0x04)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), w)

	dw, err := r.DWord(0x06)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0012A3F0), dw)

	qw, err := r.QWord(0x0A)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), qw)

	s, err := r.String(0x12)
	require.NoError(t, err)
	assert.Equal(t, "two", s)

	assert.Equal(t, []string{"one", "two"}, r.Strings())
	assert.Len(t, r.Formatted(), 20)
	assert.True(t, r.Has(0x12, 2))
	assert.False(t, r.Has(0x13, 2))

	// Reads stay inside the formatted area even though the pool follows.
	_, err = r.DWord(0x12)
	assert.ErrorIs(t, err, smbios.ErrOutOfBounds)
	_, err = r.Bytes(0x10, 8)
	assert.ErrorIs(t, err, smbios.ErrOutOfBounds)
}

func TestRecordStringIndexBeyondPool(t *testing.T) {
	tb := (&smbiostest.Table{}).Add(smbios.TypeBIOSInformation, 0, []byte{3}, "only")
	r, ok, err := newTable(t, tb).First(smbios.TypeBIOSInformation)
	require.NoError(t, err)
	require.True(t, ok)

	s, err := r.String(0x04)
	assert.ErrorIs(t, err, smbios.ErrStringIndex)
	assert.Empty(t, s)
}

func TestWalkStops(t *testing.T) {
	tests := []struct {
		name  string
		build func() ([]byte, smbios.EntryPoint)
		want  []uint8
	}{
		{
			name: "structure count",
			build: func() ([]byte, smbios.EntryPoint) {
				tb := (&smbiostest.Table{}).Add(1, 1, nil).Add(2, 2, nil).Add(3, 3, nil)
				ep := tb.EntryPoint(2, 8, 0)
				ep.StructureCount = 2
				return tb.Bytes(), ep
			},
			want: []uint8{1, 2},
		},
		{
			name: "end of table",
			build: func() ([]byte, smbios.EntryPoint) {
				tb := (&smbiostest.Table{}).Add(1, 1, nil).End().Add(4, 3, nil)
				return tb.Bytes(), tb.EntryPoint(2, 8, 0)
			},
			want: []uint8{1, 127},
		},
		{
			name: "unknown count",
			build: func() ([]byte, smbios.EntryPoint) {
				tb := (&smbiostest.Table{}).Add(1, 1, nil).Add(4, 2, nil)
				ep := tb.EntryPoint(3, 0, 0)
				ep.StructureCount = 0
				return tb.Bytes(), ep
			},
			want: []uint8{1, 4},
		},
		{
			name: "trailing bytes",
			build: func() ([]byte, smbios.EntryPoint) {
				tb := (&smbiostest.Table{}).Add(1, 1, nil)
				buf := append(tb.Bytes(), 0x7F, 0x04, 0x00)
				ep := tb.EntryPoint(2, 8, 0)
				ep.StructureCount = 5
				ep.TableLength = uint32(len(buf))
				return buf, ep
			},
			want: []uint8{1},
		},
		{
			name: "table length clamps buffer",
			build: func() ([]byte, smbios.EntryPoint) {
				tb := (&smbiostest.Table{}).Add(1, 1, nil)
				ep := tb.EntryPoint(2, 8, 0)
				buf := (&smbiostest.Table{}).Add(1, 1, nil).Add(2, 2, nil).Bytes()
				ep.StructureCount = 0
				return buf, ep
			},
			want: []uint8{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, ep := tt.build()
			tbl, err := smbios.NewTable(ep, buf, zerolog.Nop())
			require.NoError(t, err)

			var got []uint8
			err = tbl.Walk(func(r smbios.Record) error {
				got = append(got, r.Type)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWalkBrokenTable(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"length below header", []byte{1, 2, 0, 0, 0, 0}},
		{"length overruns table", []byte{1, 0x20, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := smbios.EntryPoint{Present: true, TableLength: uint32(len(tt.buf))}
			tbl, err := smbios.NewTable(ep, tt.buf, zerolog.Nop())
			require.NoError(t, err)

			err = tbl.Walk(func(smbios.Record) error { return nil })
			assert.ErrorIs(t, err, smbios.ErrBrokenTable)
		})
	}
}

func TestWalkUnterminatedPool(t *testing.T) {
	buf := []byte{1, 4, 0, 0, 'a', 'b', 0}
	tbl, err := smbios.NewTable(smbios.EntryPoint{Present: true}, buf, zerolog.Nop())
	require.NoError(t, err)

	recs, err := tbl.Records()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestWalkCallbackError(t *testing.T) {
	tb := (&smbiostest.Table{}).Add(1, 1, nil).Add(2, 2, nil)
	tbl := newTable(t, tb)

	calls := 0
	err := tbl.Walk(func(smbios.Record) error {
		calls++
		return smbios.ErrStopWalk
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	err = tbl.Walk(func(smbios.Record) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestNewTableEmpty(t *testing.T) {
	_, err := smbios.NewTable(smbios.EntryPoint{Present: true}, nil, zerolog.Nop())
	assert.ErrorIs(t, err, smbios.ErrBrokenTable)
}

func TestFirstMissing(t *testing.T) {
	tb := (&smbiostest.Table{}).Add(1, 1, nil).End()
	_, ok, err := newTable(t, tb).First(smbios.TypeProcessor)
	require.NoError(t, err)
	assert.False(t, ok)
}
