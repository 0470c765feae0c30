package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"
)

type seedFile struct {
	Contracts []struct {
		ContractNo string `json:"contract_no"`
		SoldTo     string `json:"sold_to"`
		Materials  []struct {
			MaterialCode     string `json:"material_code"`
			MatType          string `json:"mat_type"`
			ProductGroup     string `json:"product_group"`
			RemainingQty     string `json:"remaining_qty"`
			ConversionFactor string `json:"conversion_factor"`
		} `json:"materials"`
	} `json:"contracts"`
	Alternates []struct {
		SoldTo        string `json:"sold_to"`
		MaterialOwner string `json:"material_owner"`
		AlternateCode string `json:"alternate_code"`
		Priority      int    `json:"priority"`
	} `json:"alternates"`
	Determinations []struct {
		SoldTo       string `json:"sold_to"`
		MaterialCode string `json:"material_code"`
	} `json:"determinations"`
}

var errMissingPath = errors.New("seed file path required (SEED_FILE env or first argument)")

// One-shot loader for contract and substitution master data, run as a job
// whenever the commercial team ships a new extract. Upserts, never deletes.
func main() {
	logger := config.GetLogger()

	path := os.Getenv("SEED_FILE")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		config.LogError(logger, "seed", "main", "usage", nil, errMissingPath)
		os.Exit(2)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		config.LogError(logger, "seed", "main", path, nil, err)
		os.Exit(1)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		config.LogError(logger, "seed", "main", path, nil, err)
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	db := config.GetDB()
	ctx := context.Background()

	contracts, materials, alternates, determinations := 0, 0, 0, 0

	for _, c := range seed.Contracts {
		contract := models.Contract{ContractNo: c.ContractNo, SoldTo: c.SoldTo}
		if err := db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "contract_no"}},
				DoUpdates: clause.AssignmentColumns([]string{"sold_to"}),
			}).
			Create(&contract).Error; err != nil {
			config.LogError(logger, "seed", "main", c.ContractNo, nil, err)
			os.Exit(1)
		}
		contracts++

		for _, m := range c.Materials {
			remaining, err := decimal.NewFromString(m.RemainingQty)
			if err != nil {
				config.LogError(logger, "seed", "main", c.ContractNo+"/"+m.MaterialCode, m.RemainingQty, err)
				os.Exit(1)
			}
			factor := decimal.NewFromInt(1)
			if m.ConversionFactor != "" {
				factor, err = decimal.NewFromString(m.ConversionFactor)
				if err != nil {
					config.LogError(logger, "seed", "main", c.ContractNo+"/"+m.MaterialCode, m.ConversionFactor, err)
					os.Exit(1)
				}
			}
			cm := models.ContractMaterial{
				ContractNo:       c.ContractNo,
				MaterialCode:     m.MaterialCode,
				MatType:          m.MatType,
				ProductGroup:     m.ProductGroup,
				RemainingQty:     remaining,
				ConversionFactor: factor,
			}
			if err := db.WithContext(ctx).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "contract_no"}, {Name: "material_code"}},
					DoUpdates: clause.AssignmentColumns([]string{"mat_type", "product_group", "remaining_qty", "conversion_factor"}),
				}).
				Create(&cm).Error; err != nil {
				config.LogError(logger, "seed", "main", c.ContractNo+"/"+m.MaterialCode, nil, err)
				os.Exit(1)
			}
			materials++
		}
	}

	for _, a := range seed.Alternates {
		rule := models.AlternateMaterial{
			SoldTo:        a.SoldTo,
			MaterialOwner: a.MaterialOwner,
			AlternateCode: a.AlternateCode,
			Priority:      a.Priority,
		}
		if err := db.WithContext(ctx).
			Where("sold_to = ? AND material_owner = ? AND alternate_code = ?", a.SoldTo, a.MaterialOwner, a.AlternateCode).
			Assign(models.AlternateMaterial{Priority: a.Priority}).
			FirstOrCreate(&rule).Error; err != nil {
			config.LogError(logger, "seed", "main", a.MaterialOwner, nil, err)
			os.Exit(1)
		}
		alternates++
	}

	for _, d := range seed.Determinations {
		det := models.MaterialDetermination{SoldTo: d.SoldTo, MaterialCode: d.MaterialCode}
		if err := db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&det).Error; err != nil {
			config.LogError(logger, "seed", "main", d.SoldTo+"/"+d.MaterialCode, nil, err)
			os.Exit(1)
		}
		determinations++
	}

	config.LogInfo(logger, "seed", "main", "master data loaded", logrus.Fields{
		"contracts":      contracts,
		"materials":      materials,
		"alternates":     alternates,
		"determinations": determinations,
	})
}
