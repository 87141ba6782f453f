// Package export applies the spending filter and serializes collected
// transactions to CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"wio-csv/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Delimiter is the CSV output delimiter, configurable via SetDelimiter.
var Delimiter rune = ','

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// SetDelimiter allows setting the delimiter for CSV output
func SetDelimiter(delim rune) {
	Delimiter = delim
}

// FilterSpending keeps only spending transactions (negative amounts),
// preserving first-seen order.
func FilterSpending(transactions []models.Transaction) []models.Transaction {
	spending := make([]models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.IsSpending() {
			spending = append(spending, tx)
		}
	}
	return spending
}

// DefaultOutputPath returns a timestamped output file path inside dir.
func DefaultOutputPath(dir string) string {
	name := fmt.Sprintf("wio_transactions_%s.csv", time.Now().Format("20060102_150405"))
	return filepath.Join(dir, name)
}

// WriteTransactionsToCSV writes transactions to a CSV file, creating the
// output directory when needed.
func WriteTransactionsToCSV(transactions []models.Transaction, csvFile string) error {
	if transactions == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}

	log.WithFields(logrus.Fields{
		"file":  csvFile,
		"count": len(transactions),
	}).Info("Writing transactions to CSV file")

	dir := filepath.Dir(csvFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		log.WithError(err).Error("Failed to create output directory")
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(csvFile)
	if err != nil {
		log.WithError(err).Error("Failed to create CSV file")
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	// Pin amounts to two decimal places for stable output.
	for i := range transactions {
		transactions[i].NormalizeScale()
	}

	csvWriter := csv.NewWriter(file)
	csvWriter.Comma = Delimiter

	if err := gocsv.MarshalCSV(transactions, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		log.WithError(err).Error("Failed to marshal transactions to CSV")
		return fmt.Errorf("error writing CSV data: %w", err)
	}

	log.WithFields(logrus.Fields{
		"file":  csvFile,
		"count": len(transactions),
	}).Info("Successfully wrote transactions to CSV file")

	return nil
}

// ReadTransactionsFromCSV reads back a file written by WriteTransactionsToCSV.
func ReadTransactionsFromCSV(csvFile string) ([]models.Transaction, error) {
	log.WithField("file", csvFile).Info("Reading transactions CSV file")

	file, err := os.Open(csvFile)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = Delimiter
		return r
	})
	defer gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return csv.NewReader(in)
	})

	var transactions []models.Transaction
	if err := gocsv.UnmarshalFile(file, &transactions); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}

	log.WithField("count", len(transactions)).Info("Successfully read transactions")
	return transactions, nil
}
