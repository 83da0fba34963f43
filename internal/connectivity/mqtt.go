package connectivity

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const presenceQoS = 1

// MQTTNotifier publishes the client's reachability state to a broker so a
// dispatch desk can see which terminals currently have a working uplink.
// The broker's last-will marks the terminal offline when it vanishes
// without saying goodbye.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	log    *log.Entry
}

// NewMQTTNotifier connects to the broker and claims the presence topic for
// the given device id.
func NewMQTTNotifier(broker, deviceID string) (*MQTTNotifier, error) {
	topic := fmt.Sprintf("taxilog/presence/%s", deviceID)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("taxilog-" + deviceID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(10 * time.Second).
		SetWill(topic, "offline", presenceQoS, true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTNotifier{
		client: client,
		topic:  topic,
		log:    log.WithField("component", "mqtt"),
	}, nil
}

// NotifyOnline publishes the new state as a retained message.
func (n *MQTTNotifier) NotifyOnline(online bool) {
	state := "offline"
	if online {
		state = "online"
	}
	token := n.client.Publish(n.topic, presenceQoS, true, state)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			n.log.WithError(err).Warn("Presence publish failed")
		}
	}()
}

// Close announces offline and disconnects from the broker.
func (n *MQTTNotifier) Close() {
	token := n.client.Publish(n.topic, presenceQoS, true, "offline")
	token.WaitTimeout(2 * time.Second)
	n.client.Disconnect(250)
}
