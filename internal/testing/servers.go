/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package testing

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"log"
	"math/big"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/onsi/gomega/ghttp"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
)

// MakeTCPServer creates a test server that listens in a TCP socket and configured so that it
// sends log messages to the Ginkgo writer. Tests use it in place of the Steam CDN.
func MakeTCPServer() *ghttp.Server {
	server := ghttp.NewUnstartedServer()
	server.Writer = GinkgoWriter
	server.HTTPTestServer.Config.ErrorLog = log.New(GinkgoWriter, "", log.LstdFlags)
	server.HTTPTestServer.Start()
	return server
}

// RespondWithContent responds with the given status code, content type and body.
func RespondWithContent(status int, contentType string, body []byte) http.HandlerFunc {
	return ghttp.RespondWith(
		status,
		body,
		http.Header{
			"Content-Type": []string{
				contentType,
			},
		},
	)
}

// TestFile describes a file that will be added to a test archive.
type TestFile struct {
	Content string
	Mode    int64
}

// MakeTarball returns a gzip compressed tar archive containing the given files. The keys of the
// map are the names of the files inside the archive.
func MakeTarball(files map[string]TestFile) []byte {
	buffer := &bytes.Buffer{}
	compressor := gzip.NewWriter(buffer)
	writer := tar.NewWriter(compressor)
	for _, name := range sortedNames(files) {
		file := files[name]
		mode := file.Mode
		if mode == 0 {
			mode = 0644
		}
		err := writer.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     mode,
			Size:     int64(len(file.Content)),
			Typeflag: tar.TypeReg,
			ModTime:  time.Now(),
		})
		Expect(err).ToNot(HaveOccurred())
		_, err = writer.Write([]byte(file.Content))
		Expect(err).ToNot(HaveOccurred())
	}
	Expect(writer.Close()).To(Succeed())
	Expect(compressor.Close()).To(Succeed())
	return buffer.Bytes()
}

// MakeZip returns a zip archive containing the given files.
func MakeZip(files map[string]TestFile) []byte {
	buffer := &bytes.Buffer{}
	writer := zip.NewWriter(buffer)
	for _, name := range sortedNames(files) {
		entry, err := writer.Create(name)
		Expect(err).ToNot(HaveOccurred())
		_, err = entry.Write([]byte(files[name].Content))
		Expect(err).ToNot(HaveOccurred())
	}
	Expect(writer.Close()).To(Succeed())
	return buffer.Bytes()
}

func sortedNames(files map[string]TestFile) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LocalhostCertificate returns a self signed TLS certificate valid for the name `localhost` DNS
// name, for the `127.0.0.1` IPv4 address and for the `::1` IPv6 address.
func LocalhostCertificate() tls.Certificate {
	if localhostCertificate == nil {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		Expect(err).ToNot(HaveOccurred())
		now := time.Now()
		spec := x509.Certificate{
			SerialNumber: big.NewInt(0),
			Subject: pkix.Name{
				CommonName: "localhost",
			},
			DNSNames: []string{
				"localhost",
			},
			IPAddresses: []net.IP{
				net.ParseIP("127.0.0.1"),
				net.ParseIP("::1"),
			},
			NotBefore: now,
			NotAfter:  now.Add(24 * time.Hour),
			KeyUsage:  x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
			ExtKeyUsage: []x509.ExtKeyUsage{
				x509.ExtKeyUsageServerAuth,
			},
		}
		data, err := x509.CreateCertificate(rand.Reader, &spec, &spec, &key.PublicKey, key)
		Expect(err).ToNot(HaveOccurred())
		localhostCertificate = &tls.Certificate{
			Certificate: [][]byte{data},
			PrivateKey:  key,
		}
	}
	return *localhostCertificate
}

// localhostCertificate contains the TLS certificate returned by the LocalhostCertificate function.
var localhostCertificate *tls.Certificate
