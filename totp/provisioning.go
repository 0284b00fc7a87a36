// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/url"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/pkg/errors"
)

func (t *totp) GenerateURI(userSecret, account string) string {
	return BuildURI(t.cfg.WardenTOTP.Issuer, account, userSecret)
}

func (t *totp) GenerateQRCode(uri string) ([]byte, error) {
	return RenderQRCode(uri, t.cfg.WardenTOTP.QRCodeSize)
}

// BuildURI renders the key URI understood by Google Authenticator compatible apps:
// otpauth://totp/{issuer}:{account}?secret={secret}&issuer={issuer}.
func BuildURI(issuer, account, secret string) string {
	issuer = url.QueryEscape(issuer)

	return fmt.Sprintf("otpauth://totp/%v:%v?secret=%v&issuer=%v", issuer, url.QueryEscape(account), secret, issuer)
}

// RenderQRCode encodes the uri as a size x size PNG. The output is deterministic for a given uri.
func RenderQRCode(uri string, size int) ([]byte, error) {
	code, err := qr.Encode(uri, qr.M, qr.Auto)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode qr code")
	}
	if code, err = barcode.Scale(code, size, size); err != nil {
		return nil, errors.Wrapf(err, "failed to scale qr code to %vx%v", size, size)
	}
	var buf bytes.Buffer
	if err = png.Encode(&buf, code); err != nil {
		return nil, errors.Wrap(err, "failed to encode qr code as png")
	}

	return buf.Bytes(), nil
}

func DataURI(pngImage []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngImage)
}
