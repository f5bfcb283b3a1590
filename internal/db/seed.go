package db

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"
)

type seedRecord struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	WristbandCode string
}

// LoadPlayers reads players from a CSV (first_name,last_name,email,phone,wristband_code)
// and creates them with an active wristband transaction when a code is given.
// Players with a known email are reused.
func LoadPlayers(ctx context.Context, conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, ErrNotConfigured
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	records, err := readPlayers(file)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, record := range records {
		err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			player := Player{
				FirstName: record.FirstName,
				LastName:  record.LastName,
				Email:     record.Email,
				Phone:     record.Phone,
			}
			if record.Email != "" {
				if err := tx.Where(Player{Email: record.Email}).FirstOrCreate(&player).Error; err != nil {
					return err
				}
			} else if err := tx.Create(&player).Error; err != nil {
				return err
			}
			if record.WristbandCode == "" {
				return nil
			}
			playerID := player.PlayerID
			return tx.Create(&WristbandTran{
				Src:                 "seed",
				WristbandCode:       record.WristbandCode,
				WristbandStatusFlag: "A",
				PlayerID:            &playerID,
			}).Error
		})
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func readPlayers(r io.Reader) ([]seedRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("player csv is empty")
	}

	var records []seedRecord
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		field := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		record := seedRecord{
			FirstName:     field(0),
			LastName:      field(1),
			Email:         field(2),
			Phone:         field(3),
			WristbandCode: field(4),
		}
		if record.FirstName == "" {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
