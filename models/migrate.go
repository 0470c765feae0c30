package models

import (
	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/sirupsen/logrus"
)

func MigrateTable() {
	db := config.GetDB()
	logger := config.GetLogger()

	err := db.AutoMigrate(
		&Order{},
		&OrderLine{},
		&OrderLineIplan{},
		&Contract{},
		&ContractMaterial{},
		&AlternateMaterial{},
		&MaterialDetermination{},
		&GatewayLog{},
	)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"module":   "models",
			"funcName": "MigrateTable",
		}).Panic(err.Error())
	}
}
