// Package mqtt provides MQTT client connectivity for the seat planner.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament on seatplan/system/status
//
// # Topic tree
//
//	seatplan/arrangement/{id}/published   final arrangement (retained)
//	seatplan/arrangement/{id}/shared      share request
//	seatplan/arrangement/{id}/emergency   applied emergency change
//	seatplan/attendance/{member}/notice   member pulled at short notice
//	seatplan/attendance/{member}/report   absence reported by another system
//	seatplan/system/status                online/offline (retained, LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.ArrangementShared(id), msg, false)
//
// Tests that need a broker are behind the integration build tag.
package mqtt
