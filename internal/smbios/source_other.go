//go:build !windows

package smbios

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// WMISource is only available on Windows.
type WMISource struct{}

func NewWMISource(zerolog.Logger) *WMISource { return &WMISource{} }

func (s *WMISource) Name() string { return "wmi" }

func (s *WMISource) Load(context.Context) (EntryPoint, []byte, error) {
	return EntryPoint{}, nil, errors.Wrap(ErrUnsupported, "wmi")
}
