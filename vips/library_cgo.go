//go:build vipscgo

package vips

import (
	"github.com/cshum/vipscall/internal/cvips"
	"github.com/cshum/vipscall/native"
	"github.com/rs/zerolog/log"
)

func defaultLibrary() native.Library {
	lib, err := cvips.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start libvips")
	}
	return lib
}
