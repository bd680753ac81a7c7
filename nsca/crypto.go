package nsca

import "fmt"

// EncryptionMode selects how a service packet is obscured before it is
// sent to the server.
type EncryptionMode int

const (
	// ModeNone sends the packet unmodified.
	ModeNone EncryptionMode = 0
	// ModeXOR XORs the payload with the IV, then with the pre-shared key,
	// both repeating cyclically to the payload's length.
	ModeXOR EncryptionMode = 1
)

// Encrypt applies mode's transformation to payload in place and returns it.
// Unsupported modes fail clearly rather than silently sending plaintext.
func Encrypt(mode EncryptionMode, payload []byte, iv [IVSize]byte, key []byte) ([]byte, error) {
	switch mode {
	case ModeNone:
		return payload, nil
	case ModeXOR:
		xorCyclic(payload, iv[:])
		if len(key) > 0 {
			xorCyclic(payload, key)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("nsca: encryption mode %d not supported", mode)
	}
}

// xorCyclic XORs data with keyMaterial in place, repeating keyMaterial
// cyclically to data's length.
func xorCyclic(data, keyMaterial []byte) {
	if len(keyMaterial) == 0 {
		return
	}
	for i := range data {
		data[i] ^= keyMaterial[i%len(keyMaterial)]
	}
}
