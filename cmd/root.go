package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd is the base command every subcommand attaches to, following the
// standard cobra scaffold the teacher's own cmd package was generated
// from (OneDCmd/TwoDCmd both call rootCmd.AddCommand in their init()).
var rootCmd = &cobra.Command{
	Use:   "moccore",
	Short: "A 3D Method of Characteristics neutron transport eigenvalue solver",
	Long: `moccore sweeps tracks across flat source regions to drive the
outer source (Picard) iteration to a converged k_eff and scalar flux.`,
}

// Execute runs the root command, the single entry point main.go calls.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.moccore.yaml)")
}

// initConfig wires viper to the config file, falling back to
// $HOME/.moccore.yaml the way the standard cobra-cli scaffold does with
// go-homedir - both are teacher dependencies carried over unchanged.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".moccore")
	}
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
