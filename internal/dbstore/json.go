package dbstore

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func datatypesJSON(raw json.RawMessage) datatypes.JSON {
	if raw == nil {
		raw = json.RawMessage("[]")
	}
	return datatypes.JSON(raw)
}
