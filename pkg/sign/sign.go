// Package sign implements secp256k1 message signing and signer recovery for
// the wallet side of walletbridge. Hashing follows the Klaytn personal
// message convention so signatures produced here verify against klay_sign.
package sign

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// personalMessagePrefix is prepended (with the message length) before
// hashing, preventing signed messages from doubling as transactions.
const personalMessagePrefix = "\x19Klaytn Signed Message:\n"

// Signature is a 65-byte secp256k1 signature (r, s, v), hex-encoded in JSON.
type Signature []byte

// MarshalJSON implements the json.Marshaler interface, encoding the signature as a hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	decoded, err := hexutil.Decode(hexStr)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// String implements the fmt.Stringer interface.
func (s Signature) String() string {
	return hexutil.Encode(s)
}

// Signer signs personal messages with a single ECDSA private key.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner creates a Signer from a hex-encoded private key.
func NewSigner(privateKeyHex string) (*Signer, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	key, err := ethcrypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("could not parse private key: %w", err)
	}
	return &Signer{
		privateKey: key,
		address:    ethcrypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the address derived from the signer's public key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignHash signs a pre-computed 32-byte hash.
func (s *Signer) SignHash(hash []byte) (Signature, error) {
	sig, err := ethcrypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, err
	}
	// Adjust V from 0/1 to 27/28 for wallet compatibility.
	if sig[64] < 27 {
		sig[64] += 27
	}
	return Signature(sig), nil
}

// SignPersonal signs a message using the personal-message prefix convention.
func (s *Signer) SignPersonal(message []byte) (Signature, error) {
	return s.SignHash(PersonalHash(message))
}

// PersonalHash computes the prefixed Keccak256 hash of a message.
func PersonalHash(message []byte) []byte {
	prefixed := fmt.Sprintf("%s%d%s", personalMessagePrefix, len(message), message)
	return ethcrypto.Keccak256([]byte(prefixed))
}

// RecoverPersonal recovers the address that signed a prefixed message.
func RecoverPersonal(message []byte, sig Signature) (common.Address, error) {
	return RecoverFromHash(PersonalHash(message), sig)
}

// RecoverFromHash recovers the signing address from a pre-computed hash.
func RecoverFromHash(hash []byte, sig Signature) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length")
	}
	localSig := make([]byte, 65)
	copy(localSig, sig)
	if localSig[64] >= 27 {
		localSig[64] -= 27
	}
	pubKey, err := ethcrypto.SigToPub(hash, localSig)
	if err != nil {
		return common.Address{}, fmt.Errorf("signature recovery failed: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pubKey), nil
}
