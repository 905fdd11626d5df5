package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"vision-server/internal/domain"
)

const (
	fogMagic   string = `VFOG` // 4 байта
	fogVersion uint32 = 1
)

// fogHeader - точное представление заголовка блоба в памяти.
// binary.Write умеет писать это целиком: только массивы и числа.
type fogHeader struct {
	Magic   [4]byte // 4 байта
	Version uint32  // 4 байта
	Cols    int32   // 4 байта
	Rows    int32   // 4 байта
	BitsLen uint32  // 4 байта
}

// EncodeFogMask сериализует битовую маску тумана в компактный блоб.
// Формат самодостаточный: размеры сетки едут вместе с битами, чтобы
// при смене геометрии карты старый блоб можно было распознать и отбросить.
func EncodeFogMask(mask *domain.GridMask) ([]byte, error) {
	if mask == nil {
		return nil, fmt.Errorf("nil mask")
	}

	var buf bytes.Buffer
	header := fogHeader{
		Version: fogVersion,
		Cols:    int32(mask.Cols),
		Rows:    int32(mask.Rows),
		BitsLen: uint32(len(mask.Bits)),
	}
	copy(header.Magic[:], fogMagic)

	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to write fog header: %w", err)
	}
	if _, err := buf.Write(mask.Bits); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeFogMask восстанавливает маску из блоба.
func DecodeFogMask(blob []byte) (*domain.GridMask, error) {
	r := bytes.NewReader(blob)

	var header fogHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read fog header: %w", err)
	}

	if string(header.Magic[:]) != fogMagic {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != fogVersion {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, fogVersion)
	}
	if header.Cols < 0 || header.Rows < 0 {
		return nil, fmt.Errorf("negative grid dimensions: %dx%d", header.Cols, header.Rows)
	}

	mask := domain.NewGridMask(int(header.Cols), int(header.Rows))
	if int(header.BitsLen) != len(mask.Bits) {
		return nil, fmt.Errorf("bits length %d does not match %dx%d grid", header.BitsLen, header.Cols, header.Rows)
	}
	if _, err := io.ReadFull(r, mask.Bits); err != nil {
		return nil, fmt.Errorf("failed to read fog bits: %w", err)
	}
	return mask, nil
}
