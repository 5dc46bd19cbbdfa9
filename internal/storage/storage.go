package storage

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/trustform/assessd/internal/fault"
)

const (
	MethodUpload   = "PUT"
	MethodDownload = "GET"
)

var ErrBadToken = errors.New("invalid storage token")

// Storage issues time limited URLs for evidence objects.
type Storage interface {
	Presign(key string) (string, error)
	PresignDownload(key string) (string, error)
	Bucket() string
	TTL() time.Duration
}

type UploadSlot struct {
	UploadURL  string `json:"upload_url"`
	StorageKey string `json:"storage_key"`
	Bucket     string `json:"bucket"`
	ExpiresIn  int    `json:"expires_in"`
}

// NewUploadSlot reserves a fresh key for a file and presigns an upload URL for it.
func NewUploadSlot(s Storage, assessmentID uint, evidenceType, fileName string) (*UploadSlot, error) {
	key, err := Key(assessmentID, evidenceType, fileName)
	if err != nil {
		return nil, err
	}

	u, err := s.Presign(key)
	if err != nil {
		return nil, err
	}

	return &UploadSlot{
		UploadURL:  u,
		StorageKey: key,
		Bucket:     s.Bucket(),
		ExpiresIn:  int(s.TTL().Seconds()),
	}, nil
}

// Key builds assessments/<id>/<type>/<uuid>_<file name>.
func Key(assessmentID uint, evidenceType, fileName string) (string, error) {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))

	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fault.BadRequestf("bad file name %q", fileName)
	}

	if evidenceType == "" || strings.ContainsAny(evidenceType, "/\\") || evidenceType == ".." {
		return "", fault.BadRequestf("bad evidence type %q", evidenceType)
	}

	return fmt.Sprintf("assessments/%d/%s/%s_%s", assessmentID, evidenceType, uuid.NewString(), name), nil
}

type objectClaims struct {
	Key    string `json:"key"`
	Method string `json:"method"`
	jwt.RegisteredClaims
}

// Signer presigns URLs pointing at the service's own /storage endpoint.
type Signer struct {
	secret  []byte
	baseURL string
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(secret []byte, baseURL, bucket string, ttl time.Duration) *Signer {
	return &Signer{
		secret:  secret,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		bucket:  bucket,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Signer) Bucket() string {
	return s.bucket
}

func (s *Signer) TTL() time.Duration {
	return s.ttl
}

func (s *Signer) Presign(key string) (string, error) {
	return s.sign(key, MethodUpload)
}

func (s *Signer) PresignDownload(key string) (string, error) {
	return s.sign(key, MethodDownload)
}

func (s *Signer) sign(key, method string) (string, error) {
	now := s.now()

	claims := objectClaims{
		Key:    key,
		Method: method,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Audience:  jwt.ClaimStrings{s.bucket},
		},
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/storage/%s?token=%s", s.baseURL, escapeKey(key), url.QueryEscape(tok)), nil
}

// Verify checks that token grants method on key.
func (s *Signer) Verify(token, method, key string) error {
	claims := new(objectClaims)

	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(s.bucket), jwt.WithTimeFunc(s.now))

	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadToken, err)
	}

	if !t.Valid || claims.Key != key || claims.Method != method {
		return ErrBadToken
	}

	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")

	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}

	return strings.Join(parts, "/")
}
