package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	xmldsig "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/xml"
)

var (
	signCert     string
	signPassword string
	signOutput   string
)

var signCmd = &cobra.Command{
	Use:   "sign <invoice.xml>",
	Short: "Sign a UBL document with a PKCS#12 certificate",
	Long: `Add an enveloped XML-DSig signature to a UBL document using the key and
certificate in a PKCS#12 (.p12/.pfx) file, as done before portal submission.

The password defaults to GIB_CERTIFICATE_PASSWORD and the certificate to
GIB_CERTIFICATE_PATH.

Examples:
  efatura sign invoice.xml --cert mali-muhur.p12 --password secret
  efatura sign invoice.xml -o signed.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().StringVar(&signCert, "cert", "", "PKCS#12 certificate file")
	signCmd.Flags().StringVar(&signPassword, "password", "", "Certificate password")
	signCmd.Flags().StringVarP(&signOutput, "output", "o", "", "Output file (default <name>.signed.xml)")
}

func runSign(cmd *cobra.Command, args []string) error {
	cert := firstSet(signCert, os.Getenv("GIB_CERTIFICATE_PATH"))
	if cert == "" {
		return fmt.Errorf("no certificate: pass --cert or set GIB_CERTIFICATE_PATH")
	}
	password := firstSet(signPassword, os.Getenv("GIB_CERTIFICATE_PASSWORD"))

	data, err := readInput(args[0])
	if err != nil {
		return err
	}

	signer, err := xmldsig.NewXMLSignerFromFile(cert, password)
	if err != nil {
		return err
	}
	signed, err := signer.Sign(data)
	if err != nil {
		return err
	}

	out := signOutput
	if out == "" && args[0] != "-" {
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".signed.xml"
	}
	printVerbose("Signed with %s\n", signer.Credentials().Certificate.Subject.CommonName)
	return writeOutput(out, signed)
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
