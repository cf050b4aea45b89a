package checksum

import (
	"fmt"
	"io"
	"io/fs"

	"emperror.dev/errors"
)

// Copy copies src to dst and returns the digests of the copied data.
func Copy(dst io.Writer, src io.Reader, checksums []DigestAlgorithm) (map[DigestAlgorithm]string, error) {
	cw, err := NewWriter(checksums, dst)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(cw, src); err != nil {
		_ = cw.Close()
		return nil, errors.Wrap(err, "cannot copy")
	}
	if err := cw.Close(); err != nil {
		return nil, errors.Wrap(err, "error closing checksum writer")
	}
	return cw.Sums(), nil
}

func Checksum(src io.Reader, checksum DigestAlgorithm) (string, error) {
	sink, err := GetHash(checksum)
	if err != nil {
		return "", errors.Wrapf(err, "invalid checksum type %s", checksum)
	}
	if _, err := io.Copy(sink, src); err != nil {
		return "", errors.Wrapf(err, "cannot create checksum %s", checksum)
	}
	return fmt.Sprintf("%x", sink.Sum(nil)), nil
}

// File reads name from fsys and returns its size and digests.
func File(fsys fs.FS, name string, checksums []DigestAlgorithm) (int64, map[DigestAlgorithm]string, error) {
	fp, err := fsys.Open(name)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "cannot open '%s'", name)
	}
	defer fp.Close()
	cw, err := NewWriter(checksums)
	if err != nil {
		return 0, nil, err
	}
	if _, err := io.Copy(cw, fp); err != nil {
		_ = cw.Close()
		return 0, nil, errors.Wrapf(err, "cannot read '%s'", name)
	}
	if err := cw.Close(); err != nil {
		return 0, nil, errors.Wrapf(err, "cannot create checksums of '%s'", name)
	}
	return cw.Size(), cw.Sums(), nil
}
