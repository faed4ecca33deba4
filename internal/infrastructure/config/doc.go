// Package config handles loading and validating Gray Logic agent configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (GRAYLOGIC_*)
//   - Validation of required fields
//   - Default value handling
//
// The agent configuration only describes the runtime around a deployment
// (where the deployment file lives, how often to poll, which sinks are
// enabled). The deployment itself (devices, commands, sensors, rules) is
// loaded separately by the deployment package.
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/agent.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Agent.DeploymentFile)
package config
