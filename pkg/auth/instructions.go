package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide writes instructions for obtaining a Graph API access token
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "GRAPH API ACCESS TOKEN")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "graphharvest reads public page data through the Graph API and needs")
	fmt.Fprintln(w, "an access token with permission to read the pages you collect.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Open the Graph API Explorer")
	fmt.Fprintln(w, "   https://developers.facebook.com/tools/explorer/")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Select your app and generate a token")
	fmt.Fprintln(w, "   Use a Page or App token. User tokens expire within hours.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 3: Optionally extend it")
	fmt.Fprintln(w, "   https://developers.facebook.com/tools/debug/accesstoken/")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The token is stored in your system keychain when available and in an")
	fmt.Fprintln(w, "encrypted file otherwise. GRAPHHARVEST_ACCESS_TOKEN overrides both.")
	fmt.Fprintln(w, rule)
}
