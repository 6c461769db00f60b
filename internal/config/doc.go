// Package config provides configuration structures and utilities for
// cxrbalance. It defines the runtime options built from CLI flags, the
// dataset configuration file (.cxrbalance) with its class table, target
// balance, split ratios and detector settings, and the data.yaml file
// consumed by the detection framework.
package config
