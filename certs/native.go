package certs

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

const (
	defaultBits     = 4096
	defaultValidFor = 365 * 24 * time.Hour
	commonName      = "localhost"
)

var defaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// Native generates the pair in-process, for machines without openssl.
// Zero values mean the same parameters the openssl generator uses.
type Native struct {
	Hosts    []string
	ValidFor time.Duration
	Bits     int
}

func (n *Native) Generate(_ context.Context, pair Pair) error {
	hosts, validFor, bits := n.Hosts, n.ValidFor, n.Bits
	if len(hosts) == 0 {
		hosts = defaultHosts
	}
	if validFor == 0 {
		validFor = defaultValidFor
	}
	if bits == 0 {
		bits = defaultBits
	}

	cert, key, err := GenerateTLS(validFor, hosts, bits)
	if err != nil {
		return fmt.Errorf("generate certificate: %w", err)
	}
	if err := writeFile(pair.CertFile, cert, 0o644); err != nil {
		return err
	}
	return writeFile(pair.KeyFile, key, 0o600)
}

// writeFile is os.WriteFile that also resets the mode of a file left behind
// by an earlier run.
func writeFile(name string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// GenerateTLS generates a self-signed certificate and RSA key, PEM encoded.
// based on https://go.dev/src/crypto/tls/generate_cert.go
// - `hosts`: a list of ip / dns names to include in the certificate
func GenerateTLS(validFor time.Duration, hosts []string, bits int) (cert, key []byte, err error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, err
	}
	keyUsage := x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment

	notBefore := time.Now()
	notAfter := notBefore.Add(validFor)

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, nil, err
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName: commonName,
		},
		NotBefore: notBefore,
		NotAfter:  notAfter,

		KeyUsage:              keyUsage,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	// certificate is its own CA
	template.IsCA = true
	template.KeyUsage |= x509.KeyUsageCertSign

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, err
	}

	var certOut bytes.Buffer
	if err = pem.Encode(&certOut, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		return nil, nil, err
	}
	cert = certOut.Bytes()

	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, err
	}

	var keyOut bytes.Buffer
	err = pem.Encode(&keyOut, &pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})
	if err != nil {
		return nil, nil, err
	}
	key = keyOut.Bytes()
	return cert, key, nil
}
