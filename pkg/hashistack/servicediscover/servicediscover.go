package servicediscover

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"eps-campanhas/pkg/config"

	"github.com/hashicorp/consul/api"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("servicediscover", fx.Invoke(registerConsul))

// registerConsul registers the service with the local consul agent when
// CONSUL.ADDR is configured, and deregisters it on shutdown.
func registerConsul(lc fx.Lifecycle, cfg *config.Config) {
	if cfg.Consul.Addr == "" {
		return
	}

	// HTTP_SERVER.ADDR carries only the port
	host, portStr, err := net.SplitHostPort(cfg.Server.Addr)
	if err != nil {
		portStr = cfg.Server.Addr
	}
	if host == "" {
		host, _ = os.Hostname()
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		zap.L().Warn("[Consul] invalid http server addr, skipping registration", zap.String("addr", cfg.Server.Addr), zap.Error(err))
		return
	}

	serviceID := fmt.Sprintf("%s-%s", cfg.AppName, host)

	registry, err := NewConsulRegistry(cfg.Consul.Addr, cfg.AppName, serviceID, host, port)
	if err != nil {
		zap.L().Warn("[Consul] failed to build registry, skipping registration", zap.Error(err))
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := registry.Register(ctx); err != nil {
				zap.L().Warn("[Consul] service registration failed", zap.Error(err))
				return nil
			}
			zap.L().Info("[Consul] service registered", zap.String("service_id", serviceID))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return registry.Deregister(ctx)
		},
	})
}

type ConsulRegistry struct {
	client    *api.Client
	serviceID string
	service   *api.AgentServiceRegistration
}

func NewConsulRegistry(address, serviceName, serviceID, host string, port int) (*ConsulRegistry, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	service := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Address: host,
		Port:    port,
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d/health/readiness", host, port),
			Interval: "10s",
			Timeout:  "5s",
		},
	}

	return &ConsulRegistry{
		client:    client,
		serviceID: serviceID,
		service:   service,
	}, nil
}

func (r *ConsulRegistry) Register(ctx context.Context) error {
	return r.client.Agent().ServiceRegister(r.service)
}

func (r *ConsulRegistry) Deregister(ctx context.Context) error {
	return r.client.Agent().ServiceDeregister(r.serviceID)
}
