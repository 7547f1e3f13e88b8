package main

import (
	"github.com/spf13/cobra"

	"github.com/junbin-yang/go-automat/pkg/automat"
	"github.com/junbin-yang/go-automat/pkg/config"
	"github.com/junbin-yang/go-automat/pkg/logger"
)

// app 子命令共享的运行时状态
type app struct {
	configPath string
	logLevel   string
	log        logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logger.Default()}

	root := &cobra.Command{
		Use:   "automat",
		Short: "Inspect and drive table-defined state machines",
		Long: `automat loads state machine tables (YAML or JSON), checks that they compile,
renders them as Graphviz or Mermaid diagrams and drives them with a sequence of inputs.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return a.setup() },
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (yaml, json or ini)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newCheckCmd(a), newGraphCmd(a), newRunCmd(a))
	return root
}

// setup 加载设置并创建日志器，环境变量前缀为 AUTOMAT_
func (a *app) setup() error {
	settings := config.Settings{}
	if a.configPath != "" {
		m := config.NewManager[config.Settings](config.WithEnvPrefix("AUTOMAT_"), config.WithDotEnv())
		if err := m.Load(a.configPath); err != nil {
			return err
		}
		loaded, err := m.Get()
		if err != nil {
			return err
		}
		settings = *loaded
	}

	if a.logLevel != "" {
		settings.Log.Level = a.logLevel
	}
	l, err := settings.Log.NewLogger()
	if err != nil {
		return err
	}
	a.log = l
	return nil
}

// compile 加载描述文件，未注册的实现和数据工厂以名称代替
func (a *app) compile(path string) (*automat.Definition[struct{}], error) {
	table, err := config.LoadTable(path, config.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	return config.Compile(table, placeholders())
}

func placeholders() *config.Registry[struct{}] {
	return config.NewRegistry[struct{}]().
		Fallback(func(name string) automat.Handler[struct{}] {
			return func(*automat.Machine[struct{}], struct{}, any, ...any) (any, error) {
				return name, nil
			}
		}).
		FallbackFactory(func(name string) automat.Factory[struct{}] {
			return func(*automat.Machine[struct{}], struct{}, ...any) (any, error) {
				return name, nil
			}
		})
}
