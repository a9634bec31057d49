// Package config loads config.yaml for sensoradmin.
//
// Values are layered: built-in defaults, then the YAML file, then
// environment variables named SENSORADMIN_<SECTION>_<KEY> (for example
// SENSORADMIN_API_PORT). Validate collects every problem before failing so
// an operator can fix a file in one pass.
//
// The JWT secret, MQTT password and InfluxDB token belong in the
// environment. Admin accounts carry Argon2id hashes produced by
// `sensoradmin hash-password`, never plain passwords.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
package config
