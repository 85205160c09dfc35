package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type authKeyYAML struct {
	Auth authKeyPair `yaml:"auth"`
}

type authKeyPair struct {
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
}

// KeygenCmd returns a cobra.Command that generates a fresh Ed25519 keypair
// and writes it as YAML, matching the shape internal/config.AuthConfig
// expects under its auth key.
func KeygenCmd() *cobra.Command {
	var out string
	var force bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 keypair for presigned-token auth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(out, force)
		},
	}
	cmd.Flags().StringVar(&out, "out", "auth.keys.yaml", "output file path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing output file")
	return cmd
}

func runKeygen(out string, force bool) error {
	if _, err := os.Stat(out); err == nil && !force {
		return fmt.Errorf("output file already exists: %s", out)
	}

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}

	b64 := base64.URLEncoding.WithPadding(base64.NoPadding)
	doc := authKeyYAML{Auth: authKeyPair{
		PublicKey:  b64.EncodeToString(pub),
		PrivateKey: b64.EncodeToString(priv.Seed()),
	}}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal keypair: %w", err)
	}
	if err := os.WriteFile(out, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("wrote keypair to %s\n", out)
	return nil
}
