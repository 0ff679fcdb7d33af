package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	types "github.com/yungbote/omex-backend/internal/domain"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/platform/objectstorage"
)

const avatarSize = 512

var avatarPalette = []color.NRGBA{
	{R: 0x4F, G: 0x46, B: 0xE5, A: 0xFF},
	{R: 0x06, G: 0x96, B: 0x88, A: 0xFF},
	{R: 0xD9, G: 0x77, B: 0x06, A: 0xFF},
	{R: 0xDB, G: 0x27, B: 0x77, A: 0xFF},
	{R: 0x25, G: 0x63, B: 0xEB, A: 0xFF},
	{R: 0x65, G: 0xA3, B: 0x0D, A: 0xFF},
	{R: 0x7C, G: 0x3A, B: 0xED, A: 0xFF},
	{R: 0xDC, G: 0x26, B: 0x26, A: 0xFF},
}

type AvatarService interface {
	// Render draws a circular initials avatar for user as PNG.
	Render(user *types.User) ([]byte, error)
	// CreateAndUpload renders the avatar, stores it and returns its key and public URL.
	CreateAndUpload(ctx context.Context, user *types.User) (string, string, error)
}

type avatarService struct {
	log      *logger.Logger
	bucket   objectstorage.Bucket
	fontFace font.Face
}

func NewAvatarService(log *logger.Logger, bucket objectstorage.Bucket) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("could not parse avatar font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: 206, DPI: 72, Hinting: font.HintingFull})
	return &avatarService{log: serviceLog, bucket: bucket, fontFace: face}, nil
}

func (as *avatarService) Render(user *types.User) ([]byte, error) {
	if user == nil {
		return nil, fmt.Errorf("user required")
	}
	dc := gg.NewContext(avatarSize, avatarSize)
	half := float64(avatarSize) / 2

	dc.DrawCircle(half, half, half)
	dc.Clip()
	dc.SetColor(avatarColor(user))
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(computeInitials(user.FirstName, user.LastName, user.Email), half, half, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (as *avatarService) CreateAndUpload(ctx context.Context, user *types.User) (string, string, error) {
	png, err := as.Render(user)
	if err != nil {
		return "", "", err
	}
	key := fmt.Sprintf("user_avatar/%s.png", user.ID.String())
	if err := as.bucket.Upload(ctx, objectstorage.CategoryAvatar, key, bytes.NewReader(png)); err != nil {
		return "", "", fmt.Errorf("failed to upload user avatar: %w", err)
	}
	return key, as.bucket.PublicURL(objectstorage.CategoryAvatar, key), nil
}

// avatarColor picks a stable palette entry from the user id.
func avatarColor(user *types.User) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write(user.ID[:])
	return avatarPalette[h.Sum32()%uint32(len(avatarPalette))]
}

func computeInitials(firstName, lastName, email string) string {
	var out []rune
	for _, name := range []string{firstName, lastName} {
		if r, ok := firstLetter(name); ok {
			out = append(out, unicode.ToUpper(r))
		}
	}
	if len(out) == 0 {
		if r, ok := firstLetter(email); ok {
			out = append(out, unicode.ToUpper(r))
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func firstLetter(s string) (rune, bool) {
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r, true
		}
	}
	return 0, false
}
