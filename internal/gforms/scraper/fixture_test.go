package scraper

import "fmt"

const fixturePayload = `[null,[null,[
[111111,"Name",null,0,[[1000000001,null,1]]],
[222222,"Skills",null,7,[[1000000002,[["Beginner"],["Expert"]],0,["Coding"],null,null,null,null,null,null,null,[0]],[1000000003,[["Beginner"],["Expert"]],0,["Design"]]]],
[333333,"Section",null,8,null],
[444444,"Name",null,0,[[1000000004,null,0]]],
[555555,"Event date",null,9,[[1000000005,null,0,null,null,null,null,[0,1]]]],
[666666,"Big",null,0,[[9007199254740993,null,0]]],
[777777,"Solo grid",null,7,[[1000000007,[["A"]],0,["Only row"]]]],
[888888,null,null,6,null],
[999999,"Stringly",null,0,[["1000000009",null,0]]]
]],"/forms","Registration"]`

func fixtureHtml(payload, token string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head>
<script type="text/javascript" nonce="abc">var FB_PUBLIC_LOAD_DATA_ = %s
;</script>
</head><body>
<form action="/formResponse" method="POST">
<input type="hidden" name="fvv" value="1">
<input type="hidden" name="fbzx" value="%s">
</form>
</body></html>`, payload, token)
}
