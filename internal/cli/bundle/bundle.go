// Package bundle exports a compiled profile as a compressed tar archive,
// for shipping pre-rendered configuration to hosts that do not run
// duplyconf themselves.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/monotek/duplyconf/internal/cli/compiler"
	"github.com/monotek/duplyconf/internal/cli/shared"
	"github.com/monotek/duplyconf/pkg/resource"
)

const (
	EncodingTarGzip = "tar+gzip"
	EncodingTarXz   = "tar+xz"
	EncodingTarZstd = "tar+zstd"
)

// Build renders every present declaration of the plan into a tar archive
// rooted at the profile name and compresses it with the requested encoding.
// Entry order follows declaration order, so equal plans produce equal
// archives (the modification time is pinned for the same reason).
func Build(plan compiler.Plan, configRoot, encoding string) ([]byte, error) {
	if !plan.Ensure.Present() {
		return nil, fmt.Errorf("profile %q is absent, nothing to export", plan.Profile)
	}

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for _, decl := range plan.Resources {
		if decl.Desired() != resource.StatePresent {
			continue
		}
		rel, err := filepath.Rel(configRoot, decl.TargetPath())
		if err != nil {
			return nil, fmt.Errorf("bundle path %s: %w", decl.TargetPath(), err)
		}
		name := filepath.ToSlash(rel)

		switch d := decl.(type) {
		case resource.Directory:
			err = writeHeader(tw, &tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     int64(d.Mode.Perm()),
			}, nil)
		case resource.File:
			err = writeHeader(tw, &tar.Header{
				Typeflag: tar.TypeReg,
				Name:     name,
				Mode:     int64(d.Mode.Perm()),
				Size:     int64(len(d.Content)),
			}, []byte(d.Content))
		case resource.ComposedFile:
			content := d.Render()
			err = writeHeader(tw, &tar.Header{
				Typeflag: tar.TypeReg,
				Name:     name,
				Mode:     int64(d.Mode.Perm()),
				Size:     int64(len(content)),
			}, []byte(content))
		default:
			// Symlinks into the keys dir are host-specific; bundles carry
			// rendered files only.
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	return encode(tarBuf.Bytes(), encoding)
}

// Digest returns the checksum spec of a built bundle.
func Digest(content []byte) string {
	return shared.DigestAlgorithmBLAKE3 + ":" + shared.BLAKE3Hex(content)
}

func writeHeader(tw *tar.Writer, header *tar.Header, body []byte) error {
	header.ModTime = time.Unix(0, 0)
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	_, err := tw.Write(body)
	return err
}

func encode(content []byte, encoding string) ([]byte, error) {
	var out bytes.Buffer
	switch encoding {
	case EncodingTarGzip:
		w := gzip.NewWriter(&out)
		if _, err := w.Write(content); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case EncodingTarXz:
		w, err := xz.NewWriter(&out)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(content); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case EncodingTarZstd:
		w, err := zstd.NewWriter(&out)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(content); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	return out.Bytes(), nil
}

// FileName suggests an output name for a profile bundle.
func FileName(profileName, encoding string) (string, error) {
	switch encoding {
	case EncodingTarGzip:
		return profileName + ".tar.gz", nil
	case EncodingTarXz:
		return profileName + ".tar.xz", nil
	case EncodingTarZstd:
		return profileName + ".tar.zst", nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}
