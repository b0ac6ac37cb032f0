// Package consul registers the API with service discovery so gateways can
// route to it, mirroring how the rest of the platform finds services.
package consul

import (
	"fmt"
	"os"

	consulapi "github.com/hashicorp/consul/api"
)

func NewClient() (*consulapi.Client, error) {
	config := consulapi.DefaultConfig()
	if addr := os.Getenv("CONSUL_HTTP_ADDR"); addr != "" {
		config.Address = addr
	}
	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this instance with an HTTP health check on
// /ping. Returns the service id for deregistration on shutdown.
func RegisterService(client *consulapi.Client, name, address string, port int) (string, error) {
	serviceID := fmt.Sprintf("%s-%s-%d", name, address, port)

	registration := &consulapi.AgentServiceRegistration{
		ID:      serviceID,
		Name:    name,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return "", fmt.Errorf("failed to register service: %w", err)
	}
	return serviceID, nil
}

func DeregisterService(client *consulapi.Client, serviceID string) error {
	if err := client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}

// GetServiceAddress resolves one healthy instance of a service.
func GetServiceAddress(client *consulapi.Client, name string) (string, int, error) {
	services, _, err := client.Health().Service(name, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to query consul: %w", err)
	}
	if len(services) == 0 {
		return "", 0, fmt.Errorf("no healthy instances of %s", name)
	}

	service := services[0].Service
	address := service.Address
	if address == "" {
		address = services[0].Node.Address
	}
	return address, service.Port, nil
}
