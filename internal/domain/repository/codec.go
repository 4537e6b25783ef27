package repository

import (
	"encoding/json"
	"fmt"
)

// EncodeRecord serializa un registro para los adapters que guardan blobs.
func EncodeRecord(rec *KeyRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidInput)
	}
	return json.Marshal(rec)
}

// DecodeRecord es la inversa de EncodeRecord. Un blob ilegible o sin
// keyId / sealedKey devuelve ErrCorruptRecord.
func DecodeRecord(b []byte) (*KeyRecord, error) {
	var rec KeyRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.Info.KeyID == "" || len(rec.SealedKey) == 0 {
		return nil, fmt.Errorf("%w: missing keyId or sealedKey", ErrCorruptRecord)
	}
	return &rec, nil
}
