// Command scanner runs the front-desk kiosk: it reads QR payloads from a
// wedge scanner (or a camera decoder piping lines to stdin), submits one
// check-in per scan session, and shows the outcome before re-arming.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/securedesk/visitor-backend/internal/scanner"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	backendURL := getEnv("BACKEND_URL", "http://localhost:8080")
	kioskToken := os.Getenv("KIOSK_TOKEN")
	if kioskToken == "" {
		logger.Fatal("KIOSK_TOKEN is required")
	}

	device := newWedgeDevice(os.Stdin)
	client := scanner.NewClient(backendURL, kioskToken)
	session := scanner.NewSession(device, client, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := session.Start(); err != nil {
		logger.Fatalf("Failed to start scan session: %v", err)
	}
	fmt.Println("Ready to scan.")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			session.Stop()
			logger.Info("Scanner stopped")
			return
		case <-ticker.C:
			result := session.Result()
			if result.State != scanner.StateSuccess && result.State != scanner.StateError {
				continue
			}

			showResult(result)

			// Hold the outcome on screen, then re-arm for the next visitor
			time.Sleep(3 * time.Second)
			if err := session.Reset(); err != nil {
				logger.Fatalf("Failed to restart scan session: %v", err)
			}
			fmt.Println("Ready to scan.")
		}
	}
}

func showResult(result scanner.Result) {
	switch result.State {
	case scanner.StateSuccess:
		badge := "unassigned"
		if result.Visitor.BadgeID != nil {
			badge = *result.Visitor.BadgeID
		}
		fmt.Printf("Welcome, %s. Badge: %s\n", result.Visitor.FullName, badge)
	case scanner.StateError:
		switch result.Reason {
		case scanner.ReasonInvalidQRFormat:
			fmt.Println("That code is not a check-in QR. Please use the code from your approval email.")
		case scanner.ReasonNotEligible:
			fmt.Println("This visit cannot be checked in. Please see the front desk.")
		case scanner.ReasonWindowExpired:
			fmt.Println("This visit is outside its authorized time window. Please see the front desk.")
		case scanner.ReasonNetworkError:
			fmt.Println("Cannot reach the visitor system. Please try again.")
		default:
			fmt.Println("Check-in failed. Please see the front desk.")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// wedgeDevice adapts a line-oriented input stream to the CaptureDevice
// interface. Hardware wedge scanners emulate a keyboard and terminate each
// decode with a newline, so one line is one decoded payload.
type wedgeDevice struct {
	reader *bufio.Scanner

	mu       sync.Mutex
	closed   bool
	reading  bool
	onDecode func(string)
}

func newWedgeDevice(r *os.File) *wedgeDevice {
	return &wedgeDevice{reader: bufio.NewScanner(r)}
}

func (d *wedgeDevice) Open(onDecode func(payload string)) error {
	d.mu.Lock()
	d.closed = false
	d.onDecode = onDecode
	alreadyReading := d.reading
	d.reading = true
	d.mu.Unlock()

	// The input stream outlives individual sessions; one reader goroutine
	// serves every Open/Close cycle.
	if !alreadyReading {
		go d.readLoop()
	}
	return nil
}

func (d *wedgeDevice) readLoop() {
	for d.reader.Scan() {
		line := d.reader.Text()
		if line == "" {
			continue
		}

		d.mu.Lock()
		cb := d.onDecode
		closed := d.closed
		d.mu.Unlock()

		if closed || cb == nil {
			continue
		}
		cb(line)
	}
}

func (d *wedgeDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
