package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"math/big"
	"os"

	"github.com/SafeMPC/mint-service/internal/auth"
	"github.com/SafeMPC/mint-service/internal/config"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncbor"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// 生成本地测试用的 P-256 passkey 与 assertion
//
//	go run ./tools/gen_passkey_test_data -action keygen
//	go run ./tools/gen_passkey_test_data -action sign -privkey <hex> -challenge <base64url>
func main() {
	cfg := config.DefaultServiceConfigFromEnv()

	action := flag.String("action", "", "keygen or sign")
	privateKeyHex := flag.String("privkey", "", "Private key scalar (hex) for sign")
	challenge := flag.String("challenge", "", "Challenge (base64url) for sign, e.g. the mint challenge token")
	messageHex := flag.String("msg", "", "Raw challenge bytes (hex); alternative to -challenge")
	origin := flag.String("origin", valueOr(cfg.WebAuthn.RPOrigin, "http://localhost:8080"), "Client data origin")
	rpID := flag.String("rp-id", valueOr(cfg.WebAuthn.RPID, "localhost"), "Relying party id")
	flag.Parse()

	var (
		out interface{}
		err error
	)
	switch *action {
	case "keygen":
		out, err = generateKey()
	case "sign":
		if *challenge == "" && *messageHex != "" {
			*challenge, err = auth.HexToBase64URL(*messageHex)
			if err != nil {
				log.Fatal().Err(err).Msg("Invalid -msg")
			}
		}
		if *privateKeyHex == "" || *challenge == "" {
			log.Fatal().Msg("-privkey and -challenge (or -msg) are required for sign")
		}
		out, err = sign(*privateKeyHex, *challenge, *origin, *rpID)
	default:
		log.Fatal().Str("action", *action).Msg("Invalid action, use keygen or sign")
	}
	if err != nil {
		log.Fatal().Err(err).Str("action", *action).Msg("Failed to generate passkey test data")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}

type keyOutput struct {
	PrivateKey   string `json:"private_key"`
	PublicKey    string `json:"public_key_cose"`
	CredentialID string `json:"credential_id"`
}

type assertionOutput struct {
	Challenge         string `json:"challenge"`
	AuthenticatorData string `json:"authenticator_data"`
	ClientDataJSON    string `json:"client_data_json"`
	Signature         string `json:"signature"`
	CompactSignature  string `json:"compact_signature"`
}

func generateKey() (*keyOutput, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}

	cose, err := coseKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	credentialID := make([]byte, 16)
	if _, err := rand.Read(credentialID); err != nil {
		return nil, errors.Wrap(err, "failed to generate credential id")
	}

	return &keyOutput{
		PrivateKey:   hex.EncodeToString(key.D.FillBytes(make([]byte, 32))),
		PublicKey:    hex.EncodeToString(cose),
		CredentialID: base64.RawURLEncoding.EncodeToString(credentialID),
	}, nil
}

func sign(privateKeyHex, challenge, origin, rpID string) (*assertionOutput, error) {
	d, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key hex")
	}

	key := new(ecdsa.PrivateKey)
	key.Curve = elliptic.P256()
	key.D = new(big.Int).SetBytes(d)
	key.X, key.Y = key.Curve.ScalarBaseMult(d)

	clientDataJSON, err := json.Marshal(protocol.CollectedClientData{
		Type:      protocol.AssertCeremony,
		Challenge: challenge,
		Origin:    origin,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode client data")
	}

	// rpIdHash || flags(UP|UV) || signCount
	rpIDHash := sha256.Sum256([]byte(rpID))
	authData := append(rpIDHash[:], 0x05, 0, 0, 0, 0)

	clientDataHash := sha256.Sum256(clientDataJSON)
	digest := sha256.Sum256(append(append([]byte{}, authData...), clientDataHash[:]...))

	signature, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign")
	}

	cose, err := coseKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := auth.VerifyPasskeySignature(hex.EncodeToString(cose), signature, authData, clientDataJSON, challenge); err != nil {
		return nil, errors.Wrap(err, "generated assertion does not verify")
	}

	compact, err := auth.CompactSignature(signature)
	if err != nil {
		return nil, err
	}

	return &assertionOutput{
		Challenge:         challenge,
		AuthenticatorData: base64.RawURLEncoding.EncodeToString(authData),
		ClientDataJSON:    base64.RawURLEncoding.EncodeToString(clientDataJSON),
		Signature:         base64.RawURLEncoding.EncodeToString(signature),
		CompactSignature:  hex.EncodeToString(compact),
	}, nil
}

func coseKey(pub *ecdsa.PublicKey) ([]byte, error) {
	raw, err := webauthncbor.Marshal(webauthncose.EC2PublicKeyData{
		PublicKeyData: webauthncose.PublicKeyData{
			KeyType:   int64(webauthncose.EllipticKey),
			Algorithm: int64(webauthncose.AlgES256),
		},
		Curve:  int64(webauthncose.P256),
		XCoord: pub.X.FillBytes(make([]byte, 32)),
		YCoord: pub.Y.FillBytes(make([]byte, 32)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode COSE key")
	}
	return raw, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
