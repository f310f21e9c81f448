//go:build windows

package smbios

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/yusufpapurcu/wmi"
)

// MSSmBios_RawSMBiosTables maps to the WMI class exposing the raw table.
type MSSmBios_RawSMBiosTables struct {
	SmbiosMajorVersion uint8
	SmbiosMinorVersion uint8
	DmiRevision        uint8
	Size               uint32
	SMBiosData         []uint8
}

// WMISource reads the structure table from WMI. Windows does not expose the
// entry point itself, so the returned EntryPoint has no address and no
// structure count.
type WMISource struct {
	log zerolog.Logger
}

func NewWMISource(log zerolog.Logger) *WMISource {
	return &WMISource{log: log}
}

func (s *WMISource) Name() string { return "wmi" }

func (s *WMISource) Load(ctx context.Context) (EntryPoint, []byte, error) {
	if err := ctx.Err(); err != nil {
		return EntryPoint{}, nil, err
	}

	var dst []MSSmBios_RawSMBiosTables

	q := wmi.CreateQuery(&dst, "")

	if err := wmi.QueryNamespace(q, &dst, `root\wmi`); err != nil {
		return EntryPoint{}, nil, errors.Wrapf(ErrNotPresent, "wmi query: %v", err)
	}
	if len(dst) == 0 || len(dst[0].SMBiosData) == 0 {
		return EntryPoint{}, nil, errors.Wrap(ErrNotPresent, "wmi returned no SMBIOS data")
	}

	v := dst[0]
	table := v.SMBiosData
	if v.Size > 0 && int(v.Size) < len(table) {
		table = table[:v.Size]
	}

	s.log.Debug().
		Uint8("major", v.SmbiosMajorVersion).
		Uint8("minor", v.SmbiosMinorVersion).
		Int("bytes", len(table)).
		Msg("loaded SMBIOS table from WMI")

	return EntryPoint{
		Present:      true,
		MajorVersion: uint16(v.SmbiosMajorVersion),
		MinorVersion: uint16(v.SmbiosMinorVersion),
		Revision:     v.DmiRevision,
		TableLength:  uint32(len(table)),
	}, table, nil
}
