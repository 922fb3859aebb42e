package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/observability"
)

// CertificateManager holds the serving certificate and client CA pool and
// swaps them in place when the files on disk change.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert *tls.Certificate
	caCertPool *x509.CertPool
	notAfter   time.Time

	lastReloadTime  time.Time
	reloadCount     int64
	lastReloadError string

	config  config.TLSConfig
	watcher *CertWatcher
	metrics *observability.Metrics
	logger  *errors.Logger
}

// NewCertificateManager creates a certificate manager. metrics may be nil.
func NewCertificateManager(tlsConfig config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) *CertificateManager {
	if logger == nil {
		logger = errors.Nop()
	}
	return &CertificateManager{
		config:  tlsConfig,
		metrics: metrics,
		logger:  logger,
	}
}

// Start loads the initial certificates and, when auto reload is enabled for
// file based certificates, starts watching them.
func (cm *CertificateManager) Start() error {
	if err := cm.loadCertificates(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	if !cm.config.AutoReload.Enabled || !cm.usesFiles() {
		return nil
	}

	watcher := NewCertWatcher(cm.watchedFiles(), cm.config.AutoReload.DebounceDelay, cm.triggerReload, cm.logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	cm.watcher = watcher
	return nil
}

// Stop stops the file watcher, if any.
func (cm *CertificateManager) Stop() error {
	if cm.watcher == nil {
		return nil
	}
	return cm.watcher.Stop()
}

// GetCertificate serves as tls.Config.GetCertificate.
func (cm *CertificateManager) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if time.Now().After(cm.notAfter) {
		cm.logger.Warn("Serving expired certificate",
			"expiry", cm.notAfter,
			"server_name", hello.ServerName)
	}
	return cm.serverCert, nil
}

// GetCACertPool returns the current client CA pool, nil outside mutual mode.
func (cm *CertificateManager) GetCACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// ReloadCertificates reloads certificates immediately.
func (cm *CertificateManager) ReloadCertificates() error {
	return cm.loadCertificates()
}

// CheckExpiry returns the time left before the server certificate expires.
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.notAfter.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cm.notAfter), nil
}

// ReloadCount returns how many reloads were attempted, including the initial load.
func (cm *CertificateManager) ReloadCount() int64 {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.reloadCount
}

// LastReloadTime returns when certificates were last swapped successfully.
func (cm *CertificateManager) LastReloadTime() time.Time {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.lastReloadTime
}

// LastReloadError returns the message of the most recent failed reload, or "".
func (cm *CertificateManager) LastReloadError() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.lastReloadError
}

func (cm *CertificateManager) usesFiles() bool {
	return cm.config.CertContent == "" && cm.config.CertFile != ""
}

func (cm *CertificateManager) watchedFiles() []string {
	var files []string
	for _, f := range []string{cm.config.CertFile, cm.config.KeyFile, cm.config.CAFile} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// loadCertificates swaps nothing unless every configured file parses.
func (cm *CertificateManager) loadCertificates() error {
	cert, notAfter, err := cm.loadServerCertificate()
	var pool *x509.CertPool
	if err == nil && cm.config.Mode == "mutual" {
		pool, err = cm.loadCACertificate()
	}

	cm.mu.Lock()
	cm.reloadCount++
	if err != nil {
		cm.lastReloadError = err.Error()
	} else {
		cm.serverCert = cert
		cm.caCertPool = pool
		cm.notAfter = notAfter
		cm.lastReloadTime = time.Now()
		cm.lastReloadError = ""
	}
	expiry := cm.notAfter
	cm.mu.Unlock()

	cm.metrics.RecordCertReload(context.Background(), expiry, err)
	if err != nil {
		return err
	}

	cm.logger.Info("Certificates loaded", "server_cert_expiry", notAfter)
	return nil
}

func (cm *CertificateManager) loadServerCertificate() (*tls.Certificate, time.Time, error) {
	var (
		cert tls.Certificate
		err  error
	)
	switch {
	case cm.config.CertContent != "" && cm.config.KeyContent != "":
		cert, err = tls.X509KeyPair([]byte(cm.config.CertContent), []byte(cm.config.KeyContent))
	case cm.config.CertFile != "" && cm.config.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(cm.config.CertFile, cm.config.KeyFile)
	default:
		return nil, time.Time{}, fmt.Errorf("TLS enabled but no certificate and key configured")
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load server certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf
	return &cert, leaf.NotAfter, nil
}

func (cm *CertificateManager) loadCACertificate() (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case cm.config.CAContent != "":
		caCert = []byte(cm.config.CAContent)
	case cm.config.CAFile != "":
		data, err := os.ReadFile(cm.config.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, fmt.Errorf("mutual TLS requires a CA certificate")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

// triggerReload is invoked by the watcher after a debounced change.
func (cm *CertificateManager) triggerReload() {
	cm.logger.Info("Certificate files changed, reloading")
	if err := cm.loadCertificates(); err != nil {
		cm.logger.LogError(err, "Failed to reload certificates, keeping previous ones")
	}
}
