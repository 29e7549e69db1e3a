package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// LoadSSM overlays parameters stored under SSM_PARAMETER_PATH onto config.
// Values already present in the environment win over stored parameters.
func LoadSSM(ctx context.Context, config map[string]string) error {
	parameterPath := GetString(config, "SSM_PARAMETER_PATH", "")
	if parameterPath == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	n, err := MergeParameters(ctx, ssm.NewFromConfig(awsCfg), parameterPath, config)
	if err != nil {
		return err
	}
	log.Info().Str("path", parameterPath).Int("parameters", n).Msg("Loaded configuration from SSM")
	return nil
}

// MergeParameters copies every parameter below parameterPath into config and
// returns how many keys were added.
func MergeParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, parameterPath string, config map[string]string) (int, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(parameterPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	added := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return added, fmt.Errorf("get parameters by path %s: %w", parameterPath, err)
		}

		for _, p := range page.Parameters {
			key := parameterKey(aws.ToString(p.Name))
			if key == "" {
				continue
			}
			if existing, ok := config[key]; ok && existing != "" {
				continue
			}
			config[key] = aws.ToString(p.Value)
			added++
		}
	}
	return added, nil
}

// parameterKey maps "/myblog/prod/jwt-secret" to "JWT_SECRET".
func parameterKey(name string) string {
	base := path.Base(strings.TrimRight(name, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(base, "-", "_"))
}
